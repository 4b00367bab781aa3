package posintegrations

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	sq "github.com/square/square-go-sdk"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/clover"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/db/models"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
	pkgerrors "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/errors"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/logger"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/pagination"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/square"
)

const (
	// initialSyncLookback bounds the first pull for a fresh connection.
	initialSyncLookback = 30 * 24 * time.Hour
	syncPageSize        = 100
)

// Service manages external point-of-sale connections and pulls their sales
// into the portal for revenue rollups.
type Service interface {
	Connect(ctx context.Context, providerID uuid.UUID, input ConnectInput) (*models.POSConnection, error)
	Disconnect(ctx context.Context, providerID uuid.UUID, vendor enums.POSVendor) (*models.POSConnection, error)
	Status(ctx context.Context, providerID uuid.UUID) ([]models.POSConnection, error)
	Sync(ctx context.Context, providerID uuid.UUID, vendor enums.POSVendor) (*SyncResult, error)
	ListTransactions(ctx context.Context, params ListTransactionsParams) (*TransactionPage, error)
}

// SquareAPI is the slice of the Square wrapper the sync needs.
type SquareAPI interface {
	ListPayments(ctx context.Context, params square.ListPaymentsParams) ([]*sq.Payment, error)
}

// CloverAPI is the slice of the Clover wrapper the sync needs.
type CloverAPI interface {
	GetMerchant(ctx context.Context, merchantID string) (*clover.Merchant, error)
	ListPayments(ctx context.Context, merchantID string, since time.Time, limit int) ([]clover.Payment, error)
}

type service struct {
	repo    Repository
	square  SquareAPI
	clover  CloverAPI
	logg    *logger.Logger
}

// ConnectInput carries the vendor credentials reference. Square connections
// are scoped to a location, Clover ones to a merchant.
type ConnectInput struct {
	Vendor     enums.POSVendor `json:"vendor" validate:"required"`
	MerchantID *string         `json:"merchant_id,omitempty"`
	LocationID *string         `json:"location_id,omitempty"`
}

// SyncResult reports what a pull brought in.
type SyncResult struct {
	Connection models.POSConnection `json:"connection"`
	Pulled     int                  `json:"pulled"`
	Inserted   int64                `json:"inserted"`
}

// ListTransactionsParams filters the synced-sales listing.
type ListTransactionsParams struct {
	ProviderID uuid.UUID
	Vendor     *enums.POSVendor
	Limit      int
	Cursor     string
}

// TransactionPage is one page of synced sales plus the cursor for the next.
type TransactionPage struct {
	Transactions []models.POSTransaction `json:"transactions"`
	Cursor       string                  `json:"cursor,omitempty"`
}

// NewService wires the POS integration dependencies. Either vendor client may
// be nil when that vendor is not configured for the deployment.
func NewService(repo Repository, squareClient SquareAPI, cloverClient CloverAPI, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "pos repository required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{repo: repo, square: squareClient, clover: cloverClient, logg: logg}, nil
}

// Connect links or re-links a vendor account. Clover credentials are checked
// against the merchant endpoint before the link goes live.
func (s *service) Connect(ctx context.Context, providerID uuid.UUID, input ConnectInput) (*models.POSConnection, error) {
	if providerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}
	if !input.Vendor.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown pos vendor").
			WithDetails(map[string]any{"vendor": input.Vendor})
	}

	switch input.Vendor {
	case enums.POSVendorSquare:
		if s.square == nil {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "square is not configured")
		}
		if input.LocationID == nil || strings.TrimSpace(*input.LocationID) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "square connections need a location id")
		}
	case enums.POSVendorClover:
		if s.clover == nil {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "clover is not configured")
		}
		if input.MerchantID == nil || strings.TrimSpace(*input.MerchantID) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "clover connections need a merchant id")
		}
		if _, err := s.clover.GetMerchant(ctx, *input.MerchantID); err != nil {
			return nil, err
		}
	}

	conn, err := s.repo.FindConnection(ctx, providerID, input.Vendor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load connection")
	}

	if conn == nil {
		conn = &models.POSConnection{
			ID:         uuid.New(),
			ProviderID: providerID,
			Vendor:     input.Vendor,
		}
	}
	conn.Status = enums.POSConnected
	conn.MerchantID = input.MerchantID
	conn.LocationID = input.LocationID
	conn.LastError = nil

	if err := s.saveConnection(ctx, conn); err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"provider_id": providerID.String(),
		"vendor":      string(input.Vendor),
	}), "pos vendor connected")
	return conn, nil
}

// Disconnect stops syncing. The pulled transactions stay for analytics.
func (s *service) Disconnect(ctx context.Context, providerID uuid.UUID, vendor enums.POSVendor) (*models.POSConnection, error) {
	conn, err := s.loadConnection(ctx, providerID, vendor)
	if err != nil {
		return nil, err
	}

	conn.Status = enums.POSDisconnected
	if err := s.saveConnection(ctx, conn); err != nil {
		return nil, err
	}
	return conn, nil
}

func (s *service) Status(ctx context.Context, providerID uuid.UUID) ([]models.POSConnection, error) {
	if providerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}
	conns, err := s.repo.ListConnections(ctx, providerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list connections")
	}
	return conns, nil
}

// Sync pulls completed sales since the last sync and inserts the ones the
// portal has not seen. Vendor failures flip the connection to error with the
// message preserved for the dashboard.
func (s *service) Sync(ctx context.Context, providerID uuid.UUID, vendor enums.POSVendor) (*SyncResult, error) {
	conn, err := s.loadConnection(ctx, providerID, vendor)
	if err != nil {
		return nil, err
	}
	if conn.Status == enums.POSDisconnected {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "vendor is disconnected")
	}

	since := time.Now().UTC().Add(-initialSyncLookback)
	if conn.LastSyncedAt != nil {
		since = *conn.LastSyncedAt
	}

	var txns []models.POSTransaction
	switch vendor {
	case enums.POSVendorSquare:
		txns, err = s.pullSquare(ctx, conn, since)
	case enums.POSVendorClover:
		txns, err = s.pullClover(ctx, conn, since)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown pos vendor")
	}
	if err != nil {
		s.recordSyncFailure(ctx, conn, err)
		return nil, err
	}

	inserted, err := s.repo.UpsertTransactions(ctx, txns)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store transactions")
	}

	now := time.Now().UTC()
	conn.Status = enums.POSConnected
	conn.LastSyncedAt = &now
	conn.LastError = nil
	if err := s.saveConnection(ctx, conn); err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"provider_id": providerID.String(),
		"vendor":      string(vendor),
		"pulled":      len(txns),
		"inserted":    inserted,
	}), "pos sync completed")

	return &SyncResult{Connection: *conn, Pulled: len(txns), Inserted: inserted}, nil
}

func (s *service) ListTransactions(ctx context.Context, params ListTransactionsParams) (*TransactionPage, error) {
	if params.ProviderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}
	if params.Vendor != nil && !params.Vendor.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown pos vendor")
	}

	query := listTransactionsParams{
		ProviderID: params.ProviderID,
		Vendor:     params.Vendor,
		Limit:      params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	txns, next, err := s.repo.ListTransactions(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &TransactionPage{Transactions: txns, Cursor: cursor}, nil
}

func (s *service) pullSquare(ctx context.Context, conn *models.POSConnection, since time.Time) ([]models.POSTransaction, error) {
	if s.square == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "square is not configured")
	}
	locationID := ""
	if conn.LocationID != nil {
		locationID = *conn.LocationID
	}

	payments, err := s.square.ListPayments(ctx, square.ListPaymentsParams{
		LocationID: locationID,
		BeginTime:  since,
		Limit:      syncPageSize,
	})
	if err != nil {
		return nil, err
	}

	txns := make([]models.POSTransaction, 0, len(payments))
	for _, payment := range payments {
		if payment == nil {
			continue
		}
		status := strings.ToUpper(derefString(payment.GetStatus()))
		if status != "COMPLETED" {
			continue
		}
		externalID := derefString(payment.GetID())
		if externalID == "" {
			continue
		}

		var amount decimal.Decimal
		currency := "usd"
		if money := payment.GetAmountMoney(); money != nil {
			if cents := money.GetAmount(); cents != nil {
				amount = decimal.New(*cents, -2)
			}
			if code := money.GetCurrency(); code != nil {
				currency = strings.ToLower(string(*code))
			}
		}

		occurredAt := time.Now().UTC()
		if raw := derefString(payment.GetCreatedAt()); raw != "" {
			if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
				occurredAt = parsed.UTC()
			}
		}

		txns = append(txns, models.POSTransaction{
			ID:         uuid.New(),
			ProviderID: conn.ProviderID,
			Vendor:     enums.POSVendorSquare,
			ExternalID: externalID,
			Amount:     amount,
			Currency:   currency,
			OccurredAt: occurredAt,
		})
	}
	return txns, nil
}

func (s *service) pullClover(ctx context.Context, conn *models.POSConnection, since time.Time) ([]models.POSTransaction, error) {
	if s.clover == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "clover is not configured")
	}
	merchantID := ""
	if conn.MerchantID != nil {
		merchantID = *conn.MerchantID
	}

	payments, err := s.clover.ListPayments(ctx, merchantID, since, syncPageSize)
	if err != nil {
		return nil, err
	}

	txns := make([]models.POSTransaction, 0, len(payments))
	for _, payment := range payments {
		if payment.Result != "SUCCESS" || payment.ID == "" {
			continue
		}
		currency := strings.ToLower(strings.TrimSpace(payment.Currency))
		if currency == "" {
			currency = "usd"
		}
		var reference *string
		if note := strings.TrimSpace(payment.Note); note != "" {
			reference = &note
		}
		txns = append(txns, models.POSTransaction{
			ID:           uuid.New(),
			ProviderID:   conn.ProviderID,
			Vendor:       enums.POSVendorClover,
			ExternalID:   payment.ID,
			Amount:       decimal.New(payment.Amount, -2),
			Currency:     currency,
			OccurredAt:   time.UnixMilli(payment.CreatedTime).UTC(),
			RawReference: reference,
		})
	}
	return txns, nil
}

func (s *service) recordSyncFailure(ctx context.Context, conn *models.POSConnection, cause error) {
	msg := cause.Error()
	conn.Status = enums.POSError
	conn.LastError = &msg
	if err := s.repo.SaveConnection(ctx, conn); err != nil {
		s.logg.Error(ctx, "record sync failure", err)
	}
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"provider_id": conn.ProviderID.String(),
		"vendor":      string(conn.Vendor),
	}), "pos sync failed")
}

func (s *service) loadConnection(ctx context.Context, providerID uuid.UUID, vendor enums.POSVendor) (*models.POSConnection, error) {
	if providerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}
	if !vendor.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown pos vendor")
	}
	conn, err := s.repo.FindConnection(ctx, providerID, vendor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load connection")
	}
	if conn == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor is not connected")
	}
	return conn, nil
}

func (s *service) saveConnection(ctx context.Context, conn *models.POSConnection) error {
	if conn.CreatedAt.IsZero() {
		if err := s.repo.CreateConnection(ctx, conn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create connection")
		}
		return nil
	}
	if err := s.repo.SaveConnection(ctx, conn); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save connection")
	}
	return nil
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
