package api

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"log/slog"

	"github.com/garnizeh/jobboard/internal/auth"
	"github.com/garnizeh/jobboard/internal/verifier"
	"github.com/garnizeh/jobboard/pkg/models"
	"github.com/garnizeh/jobboard/pkg/repository"
)

// ProofVerifier is the slice of the identity-verification client the auth
// handler needs.
type ProofVerifier interface {
	Verify(ctx context.Context, p verifier.Proof) error
}

type AuthHandler struct {
	userRepo      repository.UserRepo
	verifier      ProofVerifier
	nonces        auth.NonceStore
	jwtSecret     string
	tokenDuration time.Duration
	demoLogin     bool
}

// NewAuthHandler creates a new AuthHandler with required dependencies.
func NewAuthHandler(ur repository.UserRepo, pv ProofVerifier, ns auth.NonceStore, jwtSecret string, tokenDuration time.Duration, demoLogin bool) *AuthHandler {
	return &AuthHandler{
		userRepo:      ur,
		verifier:      pv,
		nonces:        ns,
		jwtSecret:     jwtSecret,
		tokenDuration: tokenDuration,
		demoLogin:     demoLogin,
	}
}

type verifyLoginRequest struct {
	MerkleRoot        string `json:"merkle_root"`
	NullifierHash     string `json:"nullifier_hash"`
	Proof             string `json:"proof"`
	VerificationLevel string `json:"verification_level"`
	Action            string `json:"action,omitempty"`
	Signal            string `json:"signal,omitempty"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// VerifyLogin authenticates with an identity proof. The bundle is forwarded
// verbatim to the verification provider; on success the nullifier hash is the
// stable pseudonymous identity the user row is keyed on.
func (h *AuthHandler) VerifyLogin(w http.ResponseWriter, r *http.Request) {
	var req verifyLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.MerkleRoot == "" || req.NullifierHash == "" || req.Proof == "" || req.VerificationLevel == "" {
		http.Error(w, "Missing fields", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	err := h.verifier.Verify(ctx, verifier.Proof{
		MerkleRoot:        req.MerkleRoot,
		NullifierHash:     req.NullifierHash,
		Proof:             req.Proof,
		VerificationLevel: req.VerificationLevel,
		Action:            req.Action,
		Signal:            req.Signal,
	})
	if err != nil {
		var perr *verifier.ProviderError
		if errors.As(err, &perr) {
			writeJSON(w, map[string]any{"error": "verification failed", "code": perr.Code, "detail": perr.Detail}, http.StatusUnauthorized)
			return
		}
		http.Error(w, "Verification unavailable", http.StatusInternalServerError)
		return
	}

	user, err := h.userRepo.GetUserByNullifier(ctx, req.NullifierHash)
	if err != nil {
		http.Error(w, "Error loading user", http.StatusInternalServerError)
		return
	}
	if user == nil {
		u := &models.User{NullifierHash: req.NullifierHash, Nickname: randomNickname()}
		id, err := h.userRepo.CreateUser(ctx, u)
		if err != nil {
			// a concurrent first login may have created the row already
			if existing, gerr := h.userRepo.GetUserByNullifier(ctx, req.NullifierHash); gerr == nil && existing != nil {
				user = existing
			} else {
				http.Error(w, "Error creating user", http.StatusInternalServerError)
				return
			}
		} else {
			user, err = h.userRepo.GetUserByID(ctx, id)
			if err != nil || user == nil {
				http.Error(w, "Error loading user", http.StatusInternalServerError)
				return
			}
		}
	}

	h.respondWithToken(w, user)
}

// Nonce mints a single-use login nonce for the wallet flow.
func (h *AuthHandler) Nonce(w http.ResponseWriter, r *http.Request) {
	nonce, err := h.nonces.Issue(r.Context())
	if err != nil {
		http.Error(w, "Error generating nonce", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"nonce": nonce}, http.StatusOK)
}

type walletLoginRequest struct {
	Nonce             string `json:"nonce"`
	WalletAddress     string `json:"wallet_address"`
	Nickname          string `json:"nickname,omitempty"`
	ProfilePictureURL string `json:"profile_picture_url,omitempty"`
}

// WalletLogin authenticates with a wallet address after consuming the nonce
// minted by Nonce. The nonce is single-use and expires after the store TTL.
func (h *AuthHandler) WalletLogin(w http.ResponseWriter, r *http.Request) {
	var req walletLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Nonce == "" || req.WalletAddress == "" {
		http.Error(w, "Missing fields", http.StatusBadRequest)
		return
	}

	address, err := auth.ChecksumAddress(req.WalletAddress)
	if err != nil {
		http.Error(w, "Invalid wallet address", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	if err := h.nonces.Consume(ctx, req.Nonce); err != nil {
		if errors.Is(err, auth.ErrNonceInvalid) {
			http.Error(w, "Invalid or expired nonce", http.StatusUnauthorized)
			return
		}
		http.Error(w, "Error consuming nonce", http.StatusInternalServerError)
		return
	}

	h.loginWithWallet(w, r, address, req.Nickname, req.ProfilePictureURL)
}

// DemoLogin bypasses the wallet and nonce checks entirely and fabricates a
// synthetic address. Enabled only by configuration for non-production use.
func (h *AuthHandler) DemoLogin(w http.ResponseWriter, r *http.Request) {
	if !h.demoLogin {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	address, err := auth.SyntheticWalletAddress()
	if err != nil {
		http.Error(w, "Error generating address", http.StatusInternalServerError)
		return
	}

	h.loginWithWallet(w, r, address, "", "")
}

func (h *AuthHandler) loginWithWallet(w http.ResponseWriter, r *http.Request, address, nickname, pictureURL string) {
	ctx := r.Context()

	user, err := h.userRepo.GetUserByWallet(ctx, address)
	if err != nil {
		http.Error(w, "Error loading user", http.StatusInternalServerError)
		return
	}
	if user == nil {
		if nickname == "" {
			nickname = randomNickname()
		}
		u := &models.User{WalletAddress: address, Nickname: nickname, ProfilePictureURL: pictureURL}
		id, err := h.userRepo.CreateUser(ctx, u)
		if err != nil {
			if existing, gerr := h.userRepo.GetUserByWallet(ctx, address); gerr == nil && existing != nil {
				user = existing
			} else {
				http.Error(w, "Error creating user", http.StatusInternalServerError)
				return
			}
		} else {
			user, err = h.userRepo.GetUserByID(ctx, id)
			if err != nil || user == nil {
				http.Error(w, "Error loading user", http.StatusInternalServerError)
				return
			}
		}
	}

	h.respondWithToken(w, user)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.userRepo.GetUserByID(r.Context(), userID)
	if err != nil {
		http.Error(w, "Error loading user", http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	writeJSON(w, user, http.StatusOK)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, user *models.User) {
	token, err := auth.IssueToken(h.jwtSecret, h.tokenDuration, user.ID, user.WalletAddress)
	if err != nil {
		logger.Error("sign token", slog.Any("err", err))
		http.Error(w, "Error signing token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, authResponse{Token: token, User: user}, http.StatusOK)
}

var nicknameAdjectives = []string{"Swift", "Quiet", "Bright", "Lucky", "Bold", "Calm", "Keen", "Merry"}
var nicknameNouns = []string{"Falcon", "Otter", "Maple", "Comet", "Harbor", "Lynx", "Aspen", "Drift"}

// randomNickname builds a default display name for first-time users.
func randomNickname() string {
	var b [3]byte
	_, _ = rand.Read(b[:])
	adj := nicknameAdjectives[int(b[0])%len(nicknameAdjectives)]
	noun := nicknameNouns[int(b[1])%len(nicknameNouns)]
	return adj + noun + string('0'+rune(b[2]%10))
}
