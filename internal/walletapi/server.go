// Package walletapi serves the wallet authority over HTTP: the two read
// endpoints the sync layer polls, plus the spend and topup mutations that
// billed flows call before publishing an invalidation.
package walletapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/MarkoPoloResearchLab/walletsync/internal/authority"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	healthPath       = "/healthz"
	balancePath      = "/api/wallet/balance"
	transactionsPath = "/api/wallet/transactions"
	spendPath        = "/api/wallet/spend"
	topupPath        = "/api/wallet/topup"

	queryParamLimit         = "limit"
	defaultTransactionLimit = 20
	maxTransactionLimit     = 200

	statusSuccess             = "success"
	statusInsufficientCredits = "insufficient_credits"

	errorCodeInvalidRequest = "invalid_request"
	errorCodeStorage        = "storage"
)

// Config aggregates runtime settings for the wallet API.
type Config struct {
	SigningKey     string
	Issuer         string
	AllowedOrigins []string
}

// Validate ensures the configuration contains sane values.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.SigningKey) == "" {
		return fmt.Errorf("signing key is required")
	}
	if strings.TrimSpace(cfg.Issuer) == "" {
		return fmt.Errorf("issuer is required")
	}
	return nil
}

type httpHandler struct {
	service *authority.Service
	logger  *zap.Logger
}

// NewRouter builds the gin engine with auth and CORS wired.
func NewRouter(service *authority.Service, logger *zap.Logger, cfg Config) (*gin.Engine, error) {
	if service == nil {
		return nil, fmt.Errorf("service dependency is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	handler := &httpHandler{service: service, logger: logger}

	router := gin.New()
	router.Use(gin.Recovery())
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
		router.Use(cors.New(corsConfig))
	}
	router.GET(healthPath, func(requestContext *gin.Context) {
		requestContext.Status(http.StatusNoContent)
	})

	authorized := router.Group("/", authMiddleware([]byte(cfg.SigningKey), cfg.Issuer))
	authorized.GET(balancePath, handler.handleBalance)
	authorized.GET(transactionsPath, handler.handleTransactions)
	authorized.POST(spendPath, handler.handleSpend)
	authorized.POST(topupPath, handler.handleTopUp)
	return router, nil
}

func (handler *httpHandler) handleBalance(requestContext *gin.Context) {
	userID := userIDFromContext(requestContext)
	balance, err := handler.service.Balance(requestContext.Request.Context(), userID)
	if err != nil {
		handler.respondStorageError(requestContext, "balance lookup failed", err)
		return
	}
	requestContext.JSON(http.StatusOK, BalanceEnvelope{
		BalanceCredits:  int64(balance.BalanceCredits),
		TokensPerCredit: balance.TokensPerCredit,
	})
}

func (handler *httpHandler) handleTransactions(requestContext *gin.Context) {
	userID := userIDFromContext(requestContext)
	limit := defaultTransactionLimit
	if raw := requestContext.Query(queryParamLimit); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			requestContext.JSON(http.StatusBadRequest, ErrorEnvelope{
				Error: ErrorPayload{Code: errorCodeInvalidRequest, Message: "limit must be a positive integer"},
			})
			return
		}
		limit = parsed
	}
	if limit > maxTransactionLimit {
		limit = maxTransactionLimit
	}
	transactions, err := handler.service.ListTransactions(requestContext.Request.Context(), userID, limit)
	if err != nil {
		handler.respondStorageError(requestContext, "transaction list failed", err)
		return
	}
	payloads := make([]TransactionPayload, 0, len(transactions))
	for _, transaction := range transactions {
		payloads = append(payloads, TransactionPayload{
			TransactionID:  transaction.TransactionID,
			Type:           string(transaction.Type),
			Description:    transaction.Description,
			CreditsChange:  transaction.CreditsChange,
			Metadata:       metadataOrEmpty(transaction.MetadataJSON),
			CreatedUnixUTC: transaction.CreatedUnixUTC,
		})
	}
	requestContext.JSON(http.StatusOK, TransactionsEnvelope{Transactions: payloads})
}

func (handler *httpHandler) handleSpend(requestContext *gin.Context) {
	userID := userIDFromContext(requestContext)
	request, ok := bindMutationRequest(requestContext)
	if !ok {
		return
	}
	err := handler.service.Spend(requestContext.Request.Context(), userID, authority.Credits(request.Credits), request.Description)
	if errors.Is(err, authority.ErrInsufficientCredits) {
		handler.respondMutation(requestContext, userID, statusInsufficientCredits)
		return
	}
	if errors.Is(err, authority.ErrInvalidCredits) {
		requestContext.JSON(http.StatusBadRequest, ErrorEnvelope{
			Error: ErrorPayload{Code: errorCodeInvalidRequest, Message: err.Error()},
		})
		return
	}
	if err != nil {
		handler.respondStorageError(requestContext, "spend failed", err)
		return
	}
	handler.respondMutation(requestContext, userID, statusSuccess)
}

func (handler *httpHandler) handleTopUp(requestContext *gin.Context) {
	userID := userIDFromContext(requestContext)
	request, ok := bindMutationRequest(requestContext)
	if !ok {
		return
	}
	err := handler.service.TopUp(requestContext.Request.Context(), userID, authority.Credits(request.Credits), request.Description)
	if errors.Is(err, authority.ErrInvalidCredits) {
		requestContext.JSON(http.StatusBadRequest, ErrorEnvelope{
			Error: ErrorPayload{Code: errorCodeInvalidRequest, Message: err.Error()},
		})
		return
	}
	if err != nil {
		handler.respondStorageError(requestContext, "topup failed", err)
		return
	}
	handler.respondMutation(requestContext, userID, statusSuccess)
}

func (handler *httpHandler) respondMutation(requestContext *gin.Context, userID string, status string) {
	balance, err := handler.service.Balance(requestContext.Request.Context(), userID)
	if err != nil {
		handler.respondStorageError(requestContext, "balance reload failed", err)
		return
	}
	requestContext.JSON(http.StatusOK, MutationEnvelope{
		Status: status,
		Balance: BalanceEnvelope{
			BalanceCredits:  int64(balance.BalanceCredits),
			TokensPerCredit: balance.TokensPerCredit,
		},
	})
}

func (handler *httpHandler) respondStorageError(requestContext *gin.Context, message string, err error) {
	handler.logger.Error(message, zap.Error(err))
	requestContext.JSON(http.StatusInternalServerError, ErrorEnvelope{
		Error: ErrorPayload{Code: errorCodeStorage, Message: message},
	})
}

func bindMutationRequest(requestContext *gin.Context) (MutationRequest, bool) {
	var request MutationRequest
	if err := requestContext.ShouldBindJSON(&request); err != nil {
		requestContext.JSON(http.StatusBadRequest, ErrorEnvelope{
			Error: ErrorPayload{Code: errorCodeInvalidRequest, Message: "malformed request body"},
		})
		return MutationRequest{}, false
	}
	return request, true
}

func metadataOrEmpty(raw string) []byte {
	if strings.TrimSpace(raw) == "" {
		return []byte("{}")
	}
	return []byte(raw)
}
