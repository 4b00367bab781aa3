package checkout

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/inspections"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/payments"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/config"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/db/models"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
	pkgerrors "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/errors"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/logger"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/outbox"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/redis"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/types"
)

// Service drives the walk-in checkout wizard. Every operation validates the
// session's current step first: a failed call leaves the step and data
// untouched so the terminal can simply retry.
type Service interface {
	Start(ctx context.Context, providerID uuid.UUID) (*models.CheckoutSession, error)
	Get(ctx context.Context, providerID, sessionID uuid.UUID) (*models.CheckoutSession, error)
	LookupCustomer(ctx context.Context, providerID, sessionID uuid.UUID, phone string) (*LookupResult, error)
	Verify(ctx context.Context, providerID, sessionID uuid.UUID, input VerifyInput) (*VerifyResult, error)
	ResumeJob(ctx context.Context, providerID, sessionID, jobID uuid.UUID) (*AuthorizeResult, error)
	SelectVehicle(ctx context.Context, providerID, sessionID uuid.UUID, input VehicleInput) (*models.CheckoutSession, error)
	EnterService(ctx context.Context, providerID, sessionID uuid.UUID, input ServiceInput) (*models.CheckoutSession, error)
	Authorize(ctx context.Context, providerID, sessionID uuid.UUID, input AuthorizeInput) (*AuthorizeResult, error)
	ConfirmPayment(ctx context.Context, providerID, sessionID uuid.UUID) (*models.CheckoutSession, error)
	SendReceipt(ctx context.Context, providerID, sessionID uuid.UUID, input ReceiptInput) (*models.Receipt, error)
	ScheduleReminder(ctx context.Context, providerID, sessionID uuid.UUID, input ReminderInput) (*models.MaintenanceReminder, error)
	FinalizeFromPayment(ctx context.Context, intentID string) error
	AbandonStale(ctx context.Context) (int64, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type providerLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Provider, error)
}

// paymentGateway is the slice of the payments service the wizard needs.
type paymentGateway interface {
	CreateIntent(ctx context.Context, providerID uuid.UUID, input payments.CreateIntentInput) (*payments.IntentResult, error)
	VerifyIntent(ctx context.Context, paymentID uuid.UUID) (*models.PaymentRecord, error)
	MarkIntentSucceeded(ctx context.Context, intentID string) (*models.PaymentRecord, error)
}

type otpStore interface {
	StoreOTP(ctx context.Context, sessionID, code string, ttl time.Duration) error
	GetOTP(ctx context.Context, sessionID string) (string, error)
	DeleteOTP(ctx context.Context, sessionID string) error
}

type receiptWriter interface {
	CreateReceipt(ctx context.Context, receipt *models.Receipt) error
	FindReceiptByPayment(ctx context.Context, paymentID uuid.UUID) (*models.Receipt, error)
}

// inspectionRecorder is the slice of the inspections service the wizard uses
// to file a checklist captured during the service step.
type inspectionRecorder interface {
	Record(ctx context.Context, providerID uuid.UUID, input inspections.RecordInput) (*models.InspectionResult, error)
}

type service struct {
	repo        Repository
	providers   providerLoader
	gateway     paymentGateway
	receipts    receiptWriter
	inspections inspectionRecorder
	otp         otpStore
	emitter     eventEmitter
	tx          txRunner
	cfg         config.CheckoutConfig
	logg        *logger.Logger
}

// LookupResult reports whether the phone belongs to a known customer. The
// customer record itself is withheld until the code is verified.
type LookupResult struct {
	Session       models.CheckoutSession `json:"session"`
	KnownCustomer bool                   `json:"known_customer"`
}

// VerifyInput carries the one-time code plus registration details for
// customers the lookup did not find.
type VerifyInput struct {
	Code      string  `json:"code" validate:"required"`
	FirstName string  `json:"first_name,omitempty"`
	LastName  string  `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
}

// VerifyResult is the verified session plus any marketplace jobs the front
// desk can resume instead of running a fresh walk-in.
type VerifyResult struct {
	Session       models.CheckoutSession `json:"session"`
	Customer      models.Customer        `json:"customer"`
	ResumableJobs []models.JobPosting    `json:"resumable_jobs"`
}

// VehicleInput selects an existing vehicle or registers a new one. Exactly
// one of the two must be provided.
type VehicleInput struct {
	VehicleID *uuid.UUID       `json:"vehicle_id,omitempty"`
	New       *NewVehicleInput `json:"new,omitempty"`
}

// NewVehicleInput registers a vehicle during checkout.
type NewVehicleInput struct {
	Year    int     `json:"year" validate:"required,min=1900"`
	Make    string  `json:"make" validate:"required"`
	Model   string  `json:"model" validate:"required"`
	Trim    *string `json:"trim,omitempty"`
	VIN     *string `json:"vin,omitempty"`
	Plate   *string `json:"plate,omitempty"`
	Color   *string `json:"color,omitempty"`
	Mileage *int    `json:"mileage,omitempty"`
}

// ServiceInput is the service step: at least one line, plus an optional
// inspection recorded alongside.
type ServiceInput struct {
	Lines      []types.ServiceLine `json:"lines" validate:"required,min=1,dive"`
	Inspection *InspectionInput    `json:"inspection,omitempty"`
}

// InspectionInput is the checklist filled in while the vehicle was on the
// lift. It is persisted only when at least one item carries a finding.
type InspectionInput struct {
	Depth enums.InspectionDepth      `json:"depth" validate:"required"`
	Items []inspections.RecordedItem `json:"items" validate:"required,min=1,dive"`
	Notes *string                    `json:"notes,omitempty"`
}

// AuthorizeInput captures the customer's sign-off before payment.
type AuthorizeInput struct {
	SignerName       string    `json:"signer_name" validate:"required"`
	SignatureMediaID uuid.UUID `json:"signature_media_id" validate:"required"`
	WaiverAccepted   bool      `json:"waiver_accepted"`
}

// AuthorizeResult returns the session plus the Stripe client secret for the
// payment element.
type AuthorizeResult struct {
	Session      models.CheckoutSession `json:"session"`
	ClientSecret string                 `json:"client_secret"`
}

// ReceiptInput picks the delivery channels for the completed checkout.
type ReceiptInput struct {
	Channels []enums.ReceiptChannel `json:"channels" validate:"required,min=1"`
}

// ReminderInput schedules a maintenance follow-up from the finished session.
type ReminderInput struct {
	ServiceName string    `json:"service_name" validate:"required"`
	DueAt       time.Time `json:"due_at" validate:"required"`
}

// NewService wires the checkout wizard dependencies.
func NewService(
	repo Repository,
	providers providerLoader,
	gateway paymentGateway,
	receipts receiptWriter,
	recorder inspectionRecorder,
	otp otpStore,
	emitter eventEmitter,
	tx txRunner,
	cfg config.CheckoutConfig,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "checkout repository required")
	}
	if providers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "provider loader required")
	}
	if gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway required")
	}
	if receipts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "receipt writer required")
	}
	if recorder == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "inspection recorder required")
	}
	if otp == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "otp store required")
	}
	if emitter == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "outbox emitter required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		repo:        repo,
		providers:   providers,
		gateway:     gateway,
		receipts:    receipts,
		inspections: recorder,
		otp:         otp,
		emitter:     emitter,
		tx:          tx,
		cfg:         cfg,
		logg:        logg,
	}, nil
}

func (s *service) Start(ctx context.Context, providerID uuid.UUID) (*models.CheckoutSession, error) {
	if providerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}

	session := models.CheckoutSession{
		ID:         uuid.New(),
		ProviderID: providerID,
		Track:      enums.CheckoutTrackWalkIn,
		Step:       enums.CheckoutStepPhoneEntry,
		Version:    1,
	}
	if err := s.repo.CreateSession(ctx, &session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}
	return &session, nil
}

func (s *service) Get(ctx context.Context, providerID, sessionID uuid.UUID) (*models.CheckoutSession, error) {
	return s.loadSession(ctx, s.repo, providerID, sessionID)
}

// LookupCustomer stores the phone, issues a one-time code, and moves the
// wizard to the verification step. Whether the customer exists is the only
// detail revealed before verification.
func (s *service) LookupCustomer(ctx context.Context, providerID, sessionID uuid.UUID, phone string) (*LookupResult, error) {
	normalized, err := normalizePhone(phone)
	if err != nil {
		return nil, err
	}

	session, err := s.loadSession(ctx, s.repo, providerID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := requireStep(session, enums.CheckoutStepPhoneEntry); err != nil {
		return nil, err
	}

	customer, err := s.repo.FindCustomerByPhone(ctx, normalized)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup customer")
	}

	code, err := generateOTP(s.cfg.OTPLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate verification code")
	}
	if err := s.otp.StoreOTP(ctx, session.ID.String(), code, s.cfg.OTPTTL); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store verification code")
	}

	// The code goes out via SMS in production. It is logged at debug level
	// for local terminals without a messaging sandbox.
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"session_id": session.ID.String(),
	}), "verification code issued")

	session.Phone = &normalized
	session.Step = enums.CheckoutStepVerification
	if err := s.persist(ctx, session); err != nil {
		return nil, err
	}

	return &LookupResult{Session: *session, KnownCustomer: customer != nil}, nil
}

// Verify checks the one-time code. Unknown phones must register with at
// least a first and last name; known customers are attached as-is. A wrong
// code leaves the session at verification for another attempt.
func (s *service) Verify(ctx context.Context, providerID, sessionID uuid.UUID, input VerifyInput) (*VerifyResult, error) {
	session, err := s.loadSession(ctx, s.repo, providerID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := requireStep(session, enums.CheckoutStepVerification); err != nil {
		return nil, err
	}
	if session.Phone == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session has no phone on file")
	}

	stored, err := s.otp.GetOTP(ctx, session.ID.String())
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "verification code expired")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load verification code")
	}
	if stored != strings.TrimSpace(input.Code) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "incorrect verification code")
	}

	customer, err := s.repo.FindCustomerByPhone(ctx, *session.Phone)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup customer")
	}
	if customer == nil {
		first := strings.TrimSpace(input.FirstName)
		last := strings.TrimSpace(input.LastName)
		if first == "" || last == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "new customers need a first and last name")
		}
		customer = &models.Customer{
			ID:        uuid.New(),
			Phone:     *session.Phone,
			FirstName: first,
			LastName:  last,
			Email:     input.Email,
		}
		if err := s.repo.CreateCustomer(ctx, customer); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register customer")
		}
	}

	if err := s.otp.DeleteOTP(ctx, session.ID.String()); err != nil {
		s.logg.Warn(ctx, "delete verification code failed")
	}

	now := time.Now().UTC()
	session.CustomerID = &customer.ID
	session.PhoneVerifiedAt = &now
	session.Step = enums.CheckoutStepVehicle
	if err := s.persist(ctx, session); err != nil {
		return nil, err
	}

	resumable, err := s.repo.ListResumableJobs(ctx, customer.ID, providerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list resumable jobs")
	}

	return &VerifyResult{Session: *session, Customer: *customer, ResumableJobs: resumable}, nil
}

// ResumeJob forks a verified session onto the marketplace track: the job's
// vehicle and accepted bid amount are adopted, a payment intent is opened
// for the full amount, and the wizard jumps straight to payment.
func (s *service) ResumeJob(ctx context.Context, providerID, sessionID, jobID uuid.UUID) (*AuthorizeResult, error) {
	if jobID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "job id required")
	}

	session, err := s.loadSession(ctx, s.repo, providerID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := requireStep(session, enums.CheckoutStepVehicle); err != nil {
		return nil, err
	}
	if session.CustomerID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session has no verified customer")
	}

	job, err := s.repo.FindJobByID(ctx, jobID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load job")
	}
	if job == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "job not found")
	}
	if job.CustomerID != *session.CustomerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "job belongs to another customer")
	}
	if job.AssignedProviderID == nil || *job.AssignedProviderID != providerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "job is not assigned to this provider")
	}
	if job.EscrowStatus != enums.EscrowStatusUnfunded {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "job escrow is not awaiting payment")
	}

	amount, err := s.acceptedBidAmount(ctx, job)
	if err != nil {
		return nil, err
	}

	intent, err := s.gateway.CreateIntent(ctx, providerID, payments.CreateIntentInput{
		Amount:    amount,
		SessionID: &session.ID,
		JobID:     &job.ID,
	})
	if err != nil {
		return nil, err
	}

	session.Track = enums.CheckoutTrackResumeJob
	session.JobID = &job.ID
	session.VehicleID = &job.VehicleID
	session.Subtotal = amount
	// Tax is already baked into the accepted bid amount.
	session.TaxAmount = decimal.Zero
	session.Total = amount
	session.PaymentID = &intent.Payment.ID
	session.Step = enums.CheckoutStepPayment
	if err := s.persist(ctx, session); err != nil {
		return nil, err
	}
	return &AuthorizeResult{Session: *session, ClientSecret: intent.ClientSecret}, nil
}
