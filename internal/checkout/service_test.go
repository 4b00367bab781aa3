package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
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

type fakeRepo struct {
	sessions  map[uuid.UUID]*models.CheckoutSession
	customers map[string]*models.Customer
	vehicles  map[uuid.UUID]*models.Vehicle
	jobs      map[uuid.UUID]*models.JobPosting
	reminders []models.MaintenanceReminder
	funded    []uuid.UUID

	// staleReads makes that many session loads return a version one behind
	// the stored row, as if another terminal wrote in between.
	staleReads int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		sessions:  map[uuid.UUID]*models.CheckoutSession{},
		customers: map[string]*models.Customer{},
		vehicles:  map[uuid.UUID]*models.Vehicle{},
		jobs:      map[uuid.UUID]*models.JobPosting{},
	}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) CreateSession(ctx context.Context, session *models.CheckoutSession) error {
	copied := *session
	f.sessions[session.ID] = &copied
	return nil
}

func (f *fakeRepo) SaveSession(ctx context.Context, session *models.CheckoutSession, expectedVersion int) (bool, error) {
	current, ok := f.sessions[session.ID]
	if !ok || current.Version != expectedVersion {
		return false, nil
	}
	copied := *session
	f.sessions[session.ID] = &copied
	return true, nil
}

func (f *fakeRepo) FindSessionByID(ctx context.Context, id uuid.UUID) (*models.CheckoutSession, error) {
	session, ok := f.sessions[id]
	if !ok {
		return nil, nil
	}
	copied := *session
	if f.staleReads > 0 {
		f.staleReads--
		copied.Version--
	}
	return &copied, nil
}

func (f *fakeRepo) FindSessionByPaymentID(ctx context.Context, paymentID uuid.UUID) (*models.CheckoutSession, error) {
	for _, session := range f.sessions {
		if session.PaymentID != nil && *session.PaymentID == paymentID {
			copied := *session
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) MarkStaleSessionsAbandoned(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeRepo) FindCustomerByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	return f.customers[phone], nil
}

func (f *fakeRepo) FindCustomerByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	for _, customer := range f.customers {
		if customer.ID == id {
			return customer, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	f.customers[customer.Phone] = customer
	return nil
}

func (f *fakeRepo) FindVehicleByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	return f.vehicles[id], nil
}

func (f *fakeRepo) CreateVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	f.vehicles[vehicle.ID] = vehicle
	return nil
}

func (f *fakeRepo) ListResumableJobs(ctx context.Context, customerID, providerID uuid.UUID) ([]models.JobPosting, error) {
	var jobs []models.JobPosting
	for _, job := range f.jobs {
		if job.CustomerID == customerID && job.AssignedProviderID != nil && *job.AssignedProviderID == providerID &&
			job.EscrowStatus == enums.EscrowStatusUnfunded {
			jobs = append(jobs, *job)
		}
	}
	return jobs, nil
}

func (f *fakeRepo) FindJobByID(ctx context.Context, id uuid.UUID) (*models.JobPosting, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, nil
	}
	copied := *job
	return &copied, nil
}

func (f *fakeRepo) MarkJobEscrowFunded(ctx context.Context, jobID uuid.UUID) error {
	f.funded = append(f.funded, jobID)
	return nil
}

func (f *fakeRepo) CreateReminder(ctx context.Context, reminder *models.MaintenanceReminder) error {
	f.reminders = append(f.reminders, *reminder)
	return nil
}

func (f *fakeRepo) ListDueReminders(ctx context.Context, asOf time.Time) ([]models.MaintenanceReminder, error) {
	var due []models.MaintenanceReminder
	for _, reminder := range f.reminders {
		if reminder.SentAt == nil && !reminder.DueAt.After(asOf) {
			due = append(due, reminder)
		}
	}
	return due, nil
}

func (f *fakeRepo) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	for i := range f.reminders {
		if f.reminders[i].ID == id {
			sent := at
			f.reminders[i].SentAt = &sent
		}
	}
	return nil
}

type fakeProviders struct {
	provider *models.Provider
}

func (f *fakeProviders) FindByID(ctx context.Context, id uuid.UUID) (*models.Provider, error) {
	return f.provider, nil
}

type fakeGateway struct {
	intents    []payments.CreateIntentInput
	records    map[uuid.UUID]*models.PaymentRecord
	nextStatus enums.PaymentStatus
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		records:    map[uuid.UUID]*models.PaymentRecord{},
		nextStatus: enums.PaymentStatusSucceeded,
	}
}

func (f *fakeGateway) CreateIntent(ctx context.Context, providerID uuid.UUID, input payments.CreateIntentInput) (*payments.IntentResult, error) {
	f.intents = append(f.intents, input)
	intentID := "pi_" + uuid.NewString()[:8]
	record := models.PaymentRecord{
		ID:                    uuid.New(),
		ProviderID:            providerID,
		SessionID:             input.SessionID,
		JobID:                 input.JobID,
		Amount:                input.Amount,
		Status:                enums.PaymentStatusRequiresPayment,
		StripePaymentIntentID: &intentID,
	}
	f.records[record.ID] = &record
	return &payments.IntentResult{Payment: record, ClientSecret: intentID + "_secret"}, nil
}

func (f *fakeGateway) VerifyIntent(ctx context.Context, paymentID uuid.UUID) (*models.PaymentRecord, error) {
	record, ok := f.records[paymentID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	record.Status = f.nextStatus
	return record, nil
}

func (f *fakeGateway) MarkIntentSucceeded(ctx context.Context, intentID string) (*models.PaymentRecord, error) {
	for _, record := range f.records {
		if record.StripePaymentIntentID != nil && *record.StripePaymentIntentID == intentID {
			record.Status = enums.PaymentStatusSucceeded
			return record, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found for intent")
}

type fakeReceipts struct {
	receipts []models.Receipt
}

func (f *fakeReceipts) CreateReceipt(ctx context.Context, receipt *models.Receipt) error {
	f.receipts = append(f.receipts, *receipt)
	return nil
}

func (f *fakeReceipts) FindReceiptByPayment(ctx context.Context, paymentID uuid.UUID) (*models.Receipt, error) {
	return nil, nil
}

type fakeOTP struct {
	codes map[string]string
}

func newFakeOTP() *fakeOTP {
	return &fakeOTP{codes: map[string]string{}}
}

func (f *fakeOTP) StoreOTP(ctx context.Context, sessionID, code string, ttl time.Duration) error {
	f.codes[sessionID] = code
	return nil
}

func (f *fakeOTP) GetOTP(ctx context.Context, sessionID string) (string, error) {
	code, ok := f.codes[sessionID]
	if !ok {
		return "", redis.ErrNotFound
	}
	return code, nil
}

func (f *fakeOTP) DeleteOTP(ctx context.Context, sessionID string) error {
	delete(f.codes, sessionID)
	return nil
}

type fakeEmitter struct {
	events []outbox.DomainEvent
	err    error
}

func (f *fakeEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type fakeInspections struct {
	records []inspections.RecordInput
	err     error
}

func (f *fakeInspections) Record(ctx context.Context, providerID uuid.UUID, input inspections.RecordInput) (*models.InspectionResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.records = append(f.records, input)
	return &models.InspectionResult{
		ID:         uuid.New(),
		ProviderID: providerID,
		VehicleID:  input.VehicleID,
		SessionID:  input.SessionID,
		Depth:      input.Depth,
	}, nil
}

// fakeTxRunner restores the repo's session and escrow state when the
// callback fails, matching a rolled-back transaction.
type fakeTxRunner struct {
	repo *fakeRepo
}

func (r fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if r.repo == nil {
		return fn(&gorm.DB{})
	}
	sessions := make(map[uuid.UUID]*models.CheckoutSession, len(r.repo.sessions))
	for id, session := range r.repo.sessions {
		copied := *session
		sessions[id] = &copied
	}
	funded := append([]uuid.UUID(nil), r.repo.funded...)
	if err := fn(&gorm.DB{}); err != nil {
		r.repo.sessions = sessions
		r.repo.funded = funded
		return err
	}
	return nil
}

type wizardFixture struct {
	svc         Service
	repo        *fakeRepo
	gateway     *fakeGateway
	receipts    *fakeReceipts
	inspections *fakeInspections
	otp         *fakeOTP
	emitter     *fakeEmitter
	provider    *models.Provider
}

func newFixture(t *testing.T) *wizardFixture {
	t.Helper()
	repo := newFakeRepo()
	gateway := newFakeGateway()
	receipts := &fakeReceipts{}
	recorder := &fakeInspections{}
	otp := newFakeOTP()
	emitter := &fakeEmitter{}
	provider := &models.Provider{
		ID:      uuid.New(),
		Address: &types.Address{State: "FL", PostalCode: "33101"},
	}
	cfg := config.CheckoutConfig{OTPLength: 4, OTPTTL: 10 * time.Minute, SessionStaleAfter: 24 * time.Hour}
	logg := logger.New(logger.Options{ServiceName: "checkout-test", Level: zerolog.Disabled})

	svc, err := NewService(repo, &fakeProviders{provider: provider}, gateway, receipts, recorder, otp, emitter, fakeTxRunner{repo: repo}, cfg, logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &wizardFixture{
		svc:         svc,
		repo:        repo,
		gateway:     gateway,
		receipts:    receipts,
		inspections: recorder,
		otp:         otp,
		emitter:     emitter,
		provider:    provider,
	}
}

// walkTo drives a fresh session through the wizard up to the named step.
func (fx *wizardFixture) walkTo(t *testing.T, step enums.CheckoutStep) *models.CheckoutSession {
	t.Helper()
	ctx := context.Background()

	session, err := fx.svc.Start(ctx, fx.provider.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if step == enums.CheckoutStepPhoneEntry {
		return session
	}

	if _, err := fx.svc.LookupCustomer(ctx, fx.provider.ID, session.ID, "+13055550101"); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if step == enums.CheckoutStepVerification {
		return fx.mustSession(t, session.ID)
	}

	code := fx.otp.codes[session.ID.String()]
	verify, err := fx.svc.Verify(ctx, fx.provider.ID, session.ID, VerifyInput{
		Code:      code,
		FirstName: "Dana",
		LastName:  "Rios",
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if step == enums.CheckoutStepVehicle {
		return &verify.Session
	}

	if _, err := fx.svc.SelectVehicle(ctx, fx.provider.ID, session.ID, VehicleInput{
		New: &NewVehicleInput{Year: 2019, Make: "Honda", Model: "Civic"},
	}); err != nil {
		t.Fatalf("select vehicle: %v", err)
	}
	if step == enums.CheckoutStepService {
		return fx.mustSession(t, session.ID)
	}

	if _, err := fx.svc.EnterService(ctx, fx.provider.ID, session.ID, ServiceInput{
		Lines: []types.ServiceLine{
			{Category: "brakes", Description: "Front pads and rotors", LaborCents: 10000, PartsCents: 5000},
		},
	}); err != nil {
		t.Fatalf("enter service: %v", err)
	}
	if step == enums.CheckoutStepAuthorization {
		return fx.mustSession(t, session.ID)
	}

	if _, err := fx.svc.Authorize(ctx, fx.provider.ID, session.ID, AuthorizeInput{
		SignerName:       "Dana Rios",
		SignatureMediaID: uuid.New(),
		WaiverAccepted:   true,
	}); err != nil {
		t.Fatalf("authorize: %v", err)
	}
	return fx.mustSession(t, session.ID)
}

func (fx *wizardFixture) mustSession(t *testing.T, id uuid.UUID) *models.CheckoutSession {
	t.Helper()
	session := fx.repo.sessions[id]
	if session == nil {
		t.Fatalf("session %s missing", id)
	}
	return session
}

func TestStartOpensAtPhoneEntry(t *testing.T) {
	fx := newFixture(t)
	session := fx.walkTo(t, enums.CheckoutStepPhoneEntry)
	if session.Step != enums.CheckoutStepPhoneEntry || session.Version != 1 {
		t.Fatalf("unexpected session %+v", session)
	}
}

func TestLookupIssuesCodeAndAdvances(t *testing.T) {
	fx := newFixture(t)
	session := fx.walkTo(t, enums.CheckoutStepVerification)

	if session.Step != enums.CheckoutStepVerification {
		t.Fatalf("expected verification step, got %s", session.Step)
	}
	code := fx.otp.codes[session.ID.String()]
	if len(code) != 4 {
		t.Fatalf("expected 4-digit code, got %q", code)
	}
	if session.Phone == nil || *session.Phone != "+13055550101" {
		t.Fatalf("phone not stored: %v", session.Phone)
	}
}

func TestVerifyWrongCodeLeavesStepUnchanged(t *testing.T) {
	fx := newFixture(t)
	session := fx.walkTo(t, enums.CheckoutStepVerification)

	_, err := fx.svc.Verify(context.Background(), fx.provider.ID, session.ID, VerifyInput{Code: "0000"})
	var domainErr *pkgerrors.Error
	if !errors.As(err, &domainErr) || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if fx.mustSession(t, session.ID).Step != enums.CheckoutStepVerification {
		t.Fatal("failed verify must not move the step")
	}
}

func TestVerifyNewCustomerRequiresName(t *testing.T) {
	fx := newFixture(t)
	session := fx.walkTo(t, enums.CheckoutStepVerification)

	code := fx.otp.codes[session.ID.String()]
	_, err := fx.svc.Verify(context.Background(), fx.provider.ID, session.ID, VerifyInput{Code: code})
	var domainErr *pkgerrors.Error
	if !errors.As(err, &domainErr) || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestVerifyListsResumableJobs(t *testing.T) {
	fx := newFixture(t)
	customer := &models.Customer{ID: uuid.New(), Phone: "+13055550101", FirstName: "Dana", LastName: "Rios"}
	fx.repo.customers[customer.Phone] = customer
	providerID := fx.provider.ID
	job := &models.JobPosting{
		ID:                 uuid.New(),
		CustomerID:         customer.ID,
		AssignedProviderID: &providerID,
		EscrowStatus:       enums.EscrowStatusUnfunded,
	}
	fx.repo.jobs[job.ID] = job

	session := fx.walkTo(t, enums.CheckoutStepVerification)
	code := fx.otp.codes[session.ID.String()]
	result, err := fx.svc.Verify(context.Background(), providerID, session.ID, VerifyInput{Code: code})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if len(result.ResumableJobs) != 1 {
		t.Fatalf("expected 1 resumable job, got %d", len(result.ResumableJobs))
	}
	if result.Customer.ID != customer.ID {
		t.Fatal("existing customer should be attached, not re-registered")
	}
}

func TestSelectVehicleRejectsBothInputs(t *testing.T) {
	fx := newFixture(t)
	session := fx.walkTo(t, enums.CheckoutStepVehicle)

	id := uuid.New()
	_, err := fx.svc.SelectVehicle(context.Background(), fx.provider.ID, session.ID, VehicleInput{
		VehicleID: &id,
		New:       &NewVehicleInput{Year: 2020, Make: "Ford", Model: "F-150"},
	})
	var domainErr *pkgerrors.Error
	if !errors.As(err, &domainErr) || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEnterServicePricesWithStateTax(t *testing.T) {
	fx := newFixture(t)
	session := fx.walkTo(t, enums.CheckoutStepAuthorization)

	if session.Subtotal.StringFixed(2) != "150.00" {
		t.Fatalf("subtotal wrong: %s", session.Subtotal)
	}
	if session.TaxAmount.StringFixed(2) != "9.00" {
		t.Fatalf("tax wrong for FL: %s", session.TaxAmount)
	}
	if session.Total.StringFixed(2) != "159.00" {
		t.Fatalf("total wrong: %s", session.Total)
	}
}

func TestOutOfOrderOperationRejected(t *testing.T) {
	fx := newFixture(t)
	session := fx.walkTo(t, enums.CheckoutStepPhoneEntry)

	_, err := fx.svc.EnterService(context.Background(), fx.provider.ID, session.ID, ServiceInput{
		Lines: []types.ServiceLine{{Category: "oil", Description: "Oil change", LaborCents: 4000}},
	})
	var domainErr *pkgerrors.Error
	if !errors.As(err, &domainErr) || domainErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if fx.mustSession(t, session.ID).Step != enums.CheckoutStepPhoneEntry {
		t.Fatal("rejected operation must not move the step")
	}
}

func TestAuthorizeRequiresWaiver(t *testing.T) {
	fx := newFixture(t)
	session := fx.walkTo(t, enums.CheckoutStepAuthorization)

	_, err := fx.svc.Authorize(context.Background(), fx.provider.ID, session.ID, AuthorizeInput{
		SignerName:       "Dana Rios",
		SignatureMediaID: uuid.New(),
	})
	var domainErr *pkgerrors.Error
	if !errors.As(err, &domainErr) || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestConfirmPaymentCompletesSession(t *testing.T) {
	fx := newFixture(t)
	session := fx.walkTo(t, enums.CheckoutStepPayment)

	confirmed, err := fx.svc.ConfirmPayment(context.Background(), fx.provider.ID, session.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Step != enums.CheckoutStepSucceeded || confirmed.CompletedAt == nil {
		t.Fatalf("session not completed: %+v", confirmed)
	}

	succeeded := false
	for _, event := range fx.emitter.events {
		if event.EventType == enums.EventCheckoutSucceeded {
			succeeded = true
		}
	}
	if !succeeded {
		t.Fatal("checkout.succeeded event not emitted")
	}
}

func TestConfirmPaymentRejectsUnsettledIntent(t *testing.T) {
	fx := newFixture(t)
	session := fx.walkTo(t, enums.CheckoutStepPayment)
	fx.gateway.nextStatus = enums.PaymentStatusProcessing

	_, err := fx.svc.ConfirmPayment(context.Background(), fx.provider.ID, session.ID)
	var domainErr *pkgerrors.Error
	if !errors.As(err, &domainErr) || domainErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if fx.mustSession(t, session.ID).Step != enums.CheckoutStepPayment {
		t.Fatal("unsettled payment must leave the session at payment")
	}
}

func TestResumeJobFundsEscrowOnConfirm(t *testing.T) {
	fx := newFixture(t)
	customer := &models.Customer{ID: uuid.New(), Phone: "+13055550101", FirstName: "Dana", LastName: "Rios"}
	fx.repo.customers[customer.Phone] = customer

	providerID := fx.provider.ID
	bidID := uuid.New()
	job := &models.JobPosting{
		ID:                 uuid.New(),
		CustomerID:         customer.ID,
		VehicleID:          uuid.New(),
		AssignedProviderID: &providerID,
		EscrowStatus:       enums.EscrowStatusUnfunded,
		AcceptedBidID:      &bidID,
		Bids:               []models.Bid{{ID: bidID, Amount: decimal.RequireFromString("412.50")}},
	}
	fx.repo.jobs[job.ID] = job

	session := fx.walkTo(t, enums.CheckoutStepVehicle)
	resumed, err := fx.svc.ResumeJob(context.Background(), providerID, session.ID, job.ID)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.Session.Step != enums.CheckoutStepPayment {
		t.Fatalf("resume should jump to payment, got %s", resumed.Session.Step)
	}
	if resumed.Session.Total.StringFixed(2) != "412.50" {
		t.Fatalf("total should match accepted bid: %s", resumed.Session.Total)
	}

	if _, err := fx.svc.ConfirmPayment(context.Background(), providerID, session.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if len(fx.repo.funded) != 1 || fx.repo.funded[0] != job.ID {
		t.Fatalf("job escrow not funded: %+v", fx.repo.funded)
	}
}

func TestSendReceiptEmailNeedsAddressOnFile(t *testing.T) {
	fx := newFixture(t)
	session := fx.walkTo(t, enums.CheckoutStepPayment)
	if _, err := fx.svc.ConfirmPayment(context.Background(), fx.provider.ID, session.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	_, err := fx.svc.SendReceipt(context.Background(), fx.provider.ID, session.ID, ReceiptInput{
		Channels: []enums.ReceiptChannel{enums.ReceiptChannelEmail},
	})
	var domainErr *pkgerrors.Error
	if !errors.As(err, &domainErr) || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	receipt, err := fx.svc.SendReceipt(context.Background(), fx.provider.ID, session.ID, ReceiptInput{
		Channels: []enums.ReceiptChannel{enums.ReceiptChannelSMS, enums.ReceiptChannelPrint},
	})
	if err != nil {
		t.Fatalf("send receipt: %v", err)
	}
	if len(receipt.Deliveries) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(receipt.Deliveries))
	}
}

func TestFailedEventWriteLeavesStepUnchanged(t *testing.T) {
	fx := newFixture(t)
	session := fx.walkTo(t, enums.CheckoutStepPhoneEntry)

	fx.emitter.err = errors.New("outbox insert failed")
	_, err := fx.svc.LookupCustomer(context.Background(), fx.provider.ID, session.ID, "+13055550101")
	if err == nil {
		t.Fatal("expected error when the event cannot be written")
	}
	if fx.mustSession(t, session.ID).Step != enums.CheckoutStepPhoneEntry {
		t.Fatal("step must not advance when the event write fails")
	}

	fx.emitter.err = nil
	if _, err := fx.svc.LookupCustomer(context.Background(), fx.provider.ID, session.ID, "+13055550101"); err != nil {
		t.Fatalf("retry after transient failure: %v", err)
	}
	if fx.mustSession(t, session.ID).Step != enums.CheckoutStepVerification {
		t.Fatal("retry should advance the session")
	}
}

func TestConcurrentWriteSurfacesStaleVersion(t *testing.T) {
	fx := newFixture(t)
	session := fx.walkTo(t, enums.CheckoutStepService)

	fx.repo.staleReads = 1
	_, err := fx.svc.EnterService(context.Background(), fx.provider.ID, session.ID, ServiceInput{
		Lines: []types.ServiceLine{{Category: "oil", Description: "Oil change", LaborCents: 4000}},
	})
	var domainErr *pkgerrors.Error
	if !errors.As(err, &domainErr) || domainErr.Code() != pkgerrors.CodeVersionStale {
		t.Fatalf("expected stale version error, got %v", err)
	}
	stored := fx.mustSession(t, session.ID)
	if stored.Step != enums.CheckoutStepService {
		t.Fatal("stale write must not move the step")
	}
	if len(stored.Lines) != 0 {
		t.Fatal("stale write must not overwrite session data")
	}
}

func TestEnterServiceFilesInspectionWithFindings(t *testing.T) {
	fx := newFixture(t)
	session := fx.walkTo(t, enums.CheckoutStepService)

	note := "outer edge worn"
	updated, err := fx.svc.EnterService(context.Background(), fx.provider.ID, session.ID, ServiceInput{
		Lines: []types.ServiceLine{
			{Category: "tires", Description: "Rotate and balance", LaborCents: 6000},
		},
		Inspection: &InspectionInput{
			Depth: enums.InspectionDepthQuick,
			Items: []inspections.RecordedItem{
				{Key: "tire_condition", Status: enums.InspectionItemAttention, Note: &note},
			},
		},
	})
	if err != nil {
		t.Fatalf("enter service: %v", err)
	}
	if updated.Step != enums.CheckoutStepAuthorization {
		t.Fatalf("expected authorization step, got %s", updated.Step)
	}

	if len(fx.inspections.records) != 1 {
		t.Fatalf("expected 1 inspection, got %d", len(fx.inspections.records))
	}
	record := fx.inspections.records[0]
	if record.SessionID == nil || *record.SessionID != session.ID {
		t.Fatal("inspection not linked to the session")
	}
	if session.VehicleID == nil || record.VehicleID != *session.VehicleID {
		t.Fatal("inspection not linked to the session's vehicle")
	}
}

func TestEnterServiceSkipsChecklistWithoutFindings(t *testing.T) {
	fx := newFixture(t)
	session := fx.walkTo(t, enums.CheckoutStepService)

	_, err := fx.svc.EnterService(context.Background(), fx.provider.ID, session.ID, ServiceInput{
		Lines: []types.ServiceLine{
			{Category: "oil", Description: "Oil change", LaborCents: 4000},
		},
		Inspection: &InspectionInput{
			Depth: enums.InspectionDepthQuick,
			Items: []inspections.RecordedItem{
				{Key: "tire_condition", Status: enums.InspectionItemNotChecked},
			},
		},
	})
	if err != nil {
		t.Fatalf("enter service: %v", err)
	}
	if len(fx.inspections.records) != 0 {
		t.Fatal("untouched checklist should not be filed")
	}
	if fx.mustSession(t, session.ID).Step != enums.CheckoutStepAuthorization {
		t.Fatal("empty checklist must not block the step")
	}
}

func TestScheduleReminderRequiresCompletedCheckout(t *testing.T) {
	fx := newFixture(t)
	session := fx.walkTo(t, enums.CheckoutStepPayment)
	input := ReminderInput{ServiceName: "Oil change", DueAt: time.Now().Add(90 * 24 * time.Hour)}

	_, err := fx.svc.ScheduleReminder(context.Background(), fx.provider.ID, session.ID, input)
	var domainErr *pkgerrors.Error
	if !errors.As(err, &domainErr) || domainErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict before completion, got %v", err)
	}
	if len(fx.repo.reminders) != 0 {
		t.Fatal("no reminder should be saved mid-wizard")
	}

	if _, err := fx.svc.ConfirmPayment(context.Background(), fx.provider.ID, session.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	reminder, err := fx.svc.ScheduleReminder(context.Background(), fx.provider.ID, session.ID, input)
	if err != nil {
		t.Fatalf("schedule after completion: %v", err)
	}
	if reminder.ServiceName != "Oil change" {
		t.Fatalf("unexpected reminder %+v", reminder)
	}
}

func TestFinalizeFromPaymentCompletesLinkedSession(t *testing.T) {
	fx := newFixture(t)
	session := fx.walkTo(t, enums.CheckoutStepPayment)

	var intentID string
	for _, record := range fx.gateway.records {
		if record.SessionID != nil && *record.SessionID == session.ID {
			intentID = *record.StripePaymentIntentID
		}
	}
	if intentID == "" {
		t.Fatal("no intent recorded for session")
	}

	if err := fx.svc.FinalizeFromPayment(context.Background(), intentID); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if fx.mustSession(t, session.ID).Step != enums.CheckoutStepSucceeded {
		t.Fatal("webhook finalize should complete the session")
	}
}
