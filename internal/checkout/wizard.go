package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/inspections"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/payments"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/pricing"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/db/models"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/enums"
	pkgerrors "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/errors"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/outbox"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/types"
)

func (s *service) SelectVehicle(ctx context.Context, providerID, sessionID uuid.UUID, input VehicleInput) (*models.CheckoutSession, error) {
	if (input.VehicleID == nil) == (input.New == nil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provide either an existing vehicle or a new one, not both")
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

	var vehicleID uuid.UUID
	if input.VehicleID != nil {
		vehicle, err := s.repo.FindVehicleByID(ctx, *input.VehicleID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vehicle")
		}
		if vehicle == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
		}
		if vehicle.CustomerID != *session.CustomerID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vehicle belongs to another customer")
		}
		vehicleID = vehicle.ID
	} else {
		if input.New.Year < 1900 || strings.TrimSpace(input.New.Make) == "" || strings.TrimSpace(input.New.Model) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "year, make, and model are required")
		}
		vehicle := models.Vehicle{
			ID:         uuid.New(),
			CustomerID: *session.CustomerID,
			Year:       input.New.Year,
			Make:       strings.TrimSpace(input.New.Make),
			Model:      strings.TrimSpace(input.New.Model),
			Trim:       input.New.Trim,
			VIN:        input.New.VIN,
			Plate:      input.New.Plate,
			Color:      input.New.Color,
			Mileage:    input.New.Mileage,
		}
		if err := s.repo.CreateVehicle(ctx, &vehicle); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register vehicle")
		}
		vehicleID = vehicle.ID
	}

	session.VehicleID = &vehicleID
	session.Step = enums.CheckoutStepService
	if err := s.persist(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// EnterService records the service lines and prices the checkout: the
// subtotal comes straight from the cents on the lines, tax from the
// provider's state. A checklist submitted with the lines is filed against
// the session's vehicle when any item carries a selection or a note.
func (s *service) EnterService(ctx context.Context, providerID, sessionID uuid.UUID, input ServiceInput) (*models.CheckoutSession, error) {
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one service line required")
	}
	for i, line := range input.Lines {
		if strings.TrimSpace(line.Category) == "" || strings.TrimSpace(line.Description) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d needs a category and description", i+1))
		}
		if line.LaborCents < 0 || line.PartsCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d has negative amounts", i+1))
		}
	}

	session, err := s.loadSession(ctx, s.repo, providerID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := requireStep(session, enums.CheckoutStepService); err != nil {
		return nil, err
	}

	provider, err := s.providers.FindByID(ctx, providerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load provider")
	}
	if provider == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "provider not found")
	}

	var subtotalCents int64
	for _, line := range input.Lines {
		subtotalCents += line.TotalCents()
	}
	if subtotalCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout total must be positive")
	}

	subtotal := decimal.New(subtotalCents, -2)
	state := ""
	if provider.Address != nil {
		state = provider.Address.State
	}
	tax := subtotal.Mul(pricing.StateTaxRate(state)).Div(decimal.NewFromInt(100)).Round(2)

	if hasInspectionFindings(input.Inspection) {
		if session.VehicleID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session has no vehicle")
		}
		if _, err := s.inspections.Record(ctx, providerID, inspections.RecordInput{
			VehicleID: *session.VehicleID,
			SessionID: &session.ID,
			Depth:     input.Inspection.Depth,
			Items:     input.Inspection.Items,
			Notes:     input.Inspection.Notes,
		}); err != nil {
			return nil, err
		}
	}

	session.Lines = input.Lines
	session.Subtotal = subtotal
	session.TaxAmount = tax
	session.Total = subtotal.Add(tax)
	session.Step = enums.CheckoutStepAuthorization
	if err := s.persist(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Authorize captures the signer, signature, and waiver, then opens the
// payment intent for the session total.
func (s *service) Authorize(ctx context.Context, providerID, sessionID uuid.UUID, input AuthorizeInput) (*AuthorizeResult, error) {
	if strings.TrimSpace(input.SignerName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "signer name required")
	}
	if input.SignatureMediaID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "signature required")
	}
	if !input.WaiverAccepted {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "waiver must be accepted")
	}

	session, err := s.loadSession(ctx, s.repo, providerID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := requireStep(session, enums.CheckoutStepAuthorization); err != nil {
		return nil, err
	}
	if !session.Total.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session has no priced services")
	}

	intent, err := s.gateway.CreateIntent(ctx, providerID, payments.CreateIntentInput{
		Amount:    session.Total,
		SessionID: &session.ID,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	signer := strings.TrimSpace(input.SignerName)
	signature := input.SignatureMediaID
	session.AuthorizedAt = &now
	session.AuthorizedBy = &signer
	session.WaiverAccepted = true
	session.SignatureMedia = &signature
	session.PaymentID = &intent.Payment.ID
	session.Step = enums.CheckoutStepPayment
	if err := s.persist(ctx, session); err != nil {
		return nil, err
	}

	return &AuthorizeResult{Session: *session, ClientSecret: intent.ClientSecret}, nil
}

// ConfirmPayment checks the intent with Stripe and, on success, completes
// the session. On the marketplace track the job's escrow flips to funded in
// the same transaction.
func (s *service) ConfirmPayment(ctx context.Context, providerID, sessionID uuid.UUID) (*models.CheckoutSession, error) {
	session, err := s.loadSession(ctx, s.repo, providerID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Step == enums.CheckoutStepSucceeded {
		return session, nil
	}
	if err := requireStep(session, enums.CheckoutStepPayment); err != nil {
		return nil, err
	}
	if session.PaymentID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session has no payment")
	}

	record, err := s.gateway.VerifyIntent(ctx, *session.PaymentID)
	if err != nil {
		return nil, err
	}
	if record.Status != enums.PaymentStatusSucceeded {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment has not settled").
			WithDetails(map[string]any{"payment_status": record.Status})
	}

	if err := s.complete(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// FinalizeFromPayment is the webhook path to completion: the intent already
// settled, so the linked session (if any) is completed without another call
// to Stripe.
func (s *service) FinalizeFromPayment(ctx context.Context, intentID string) error {
	record, err := s.gateway.MarkIntentSucceeded(ctx, intentID)
	if err != nil {
		return err
	}
	if record.SessionID == nil {
		return nil
	}

	session, err := s.repo.FindSessionByID(ctx, *record.SessionID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	if session == nil || session.Step != enums.CheckoutStepPayment {
		return nil
	}
	return s.complete(ctx, session)
}

// complete flips the session to succeeded, funds escrow on the resume
// track, and emits the completion event, all in one transaction.
func (s *service) complete(ctx context.Context, session *models.CheckoutSession) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		now := time.Now().UTC()
		expected := session.Version
		session.Step = enums.CheckoutStepSucceeded
		session.CompletedAt = &now
		session.Version++
		swapped, err := repo.SaveSession(ctx, session, expected)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save session")
		}
		if !swapped {
			return pkgerrors.New(pkgerrors.CodeVersionStale, "session version is stale").
				WithDetails(map[string]any{"expected_version": expected})
		}

		if session.Track == enums.CheckoutTrackResumeJob && session.JobID != nil {
			if err := repo.MarkJobEscrowFunded(ctx, *session.JobID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fund job escrow")
			}
		}

		if err := s.emitter.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCheckoutSucceeded,
			AggregateType: enums.AggregateCheckoutSession,
			AggregateID:   session.ID,
			Data: outbox.CheckoutEventData{
				SessionID:  session.ID,
				ProviderID: session.ProviderID,
				Step:       string(session.Step),
				Track:      string(session.Track),
			},
		}); err != nil {
			return err
		}

		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"session_id": session.ID.String(),
			"track":      string(session.Track),
		}), "checkout completed")
		return nil
	})
}

// SendReceipt records where the receipt went. At least one channel is
// required and email delivery needs an address on file.
func (s *service) SendReceipt(ctx context.Context, providerID, sessionID uuid.UUID, input ReceiptInput) (*models.Receipt, error) {
	if len(input.Channels) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one receipt channel required")
	}

	session, err := s.loadSession(ctx, s.repo, providerID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Step != enums.CheckoutStepSucceeded {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "receipts are only sent for completed checkouts")
	}
	if session.PaymentID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session has no payment")
	}

	var customer *models.Customer
	if session.CustomerID != nil {
		customer, err = s.repo.FindCustomerByID(ctx, *session.CustomerID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	deliveries := make([]types.ReceiptDelivery, 0, len(input.Channels))
	for _, channel := range input.Channels {
		if !channel.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown receipt channel")
		}
		delivery := types.ReceiptDelivery{Channel: channel, SentAt: now}
		switch channel {
		case enums.ReceiptChannelEmail:
			if customer == nil || customer.Email == nil || *customer.Email == "" {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer has no email on file")
			}
			delivery.Destination = *customer.Email
		case enums.ReceiptChannelSMS:
			if session.Phone != nil {
				delivery.Destination = *session.Phone
			}
		}
		deliveries = append(deliveries, delivery)
	}

	receipt := models.Receipt{
		ID:         uuid.New(),
		PaymentID:  *session.PaymentID,
		SessionID:  &session.ID,
		Deliveries: deliveries,
	}
	if err := s.receipts.CreateReceipt(ctx, &receipt); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save receipt")
	}
	return &receipt, nil
}

func (s *service) ScheduleReminder(ctx context.Context, providerID, sessionID uuid.UUID, input ReminderInput) (*models.MaintenanceReminder, error) {
	if strings.TrimSpace(input.ServiceName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service name required")
	}
	if input.DueAt.Before(time.Now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "due date must be in the future")
	}

	session, err := s.loadSession(ctx, s.repo, providerID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Step != enums.CheckoutStepSucceeded {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "reminders are only scheduled for completed checkouts")
	}
	if session.CustomerID == nil || session.VehicleID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session has no customer and vehicle")
	}

	reminder := models.MaintenanceReminder{
		ID:          uuid.New(),
		ProviderID:  providerID,
		CustomerID:  *session.CustomerID,
		VehicleID:   *session.VehicleID,
		ServiceName: strings.TrimSpace(input.ServiceName),
		DueAt:       input.DueAt.UTC(),
	}
	if err := s.repo.CreateReminder(ctx, &reminder); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save reminder")
	}
	return &reminder, nil
}

// AbandonStale sweeps sessions idle past the configured window.
func (s *service) AbandonStale(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-s.cfg.SessionStaleAfter)
	count, err := s.repo.MarkStaleSessionsAbandoned(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "abandon stale sessions")
	}
	return count, nil
}

// acceptedBidAmount resolves what the customer owes on a resumed job.
func (s *service) acceptedBidAmount(ctx context.Context, job *models.JobPosting) (decimal.Decimal, error) {
	if job.AcceptedBidID == nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeStateConflict, "job has no accepted bid")
	}
	for _, bid := range job.Bids {
		if bid.ID == *job.AcceptedBidID {
			return bid.Amount, nil
		}
	}

	// Bids were not preloaded on this path; fetch the full aggregate.
	full, err := s.repo.FindJobByID(ctx, job.ID)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load job bids")
	}
	if full != nil {
		for _, bid := range full.Bids {
			if bid.ID == *job.AcceptedBidID {
				return bid.Amount, nil
			}
		}
	}
	return decimal.Zero, pkgerrors.New(pkgerrors.CodeStateConflict, "accepted bid not found")
}

// persist writes the session and its update event in one transaction. The
// write is a compare-and-swap on the version the caller loaded: a step never
// advances durably unless the event lands with it, and a concurrent write
// from another terminal surfaces as VERSION_STALE instead of being clobbered.
func (s *service) persist(ctx context.Context, session *models.CheckoutSession) error {
	expected := session.Version
	session.Version++
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		swapped, err := repo.SaveSession(ctx, session, expected)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save session")
		}
		if !swapped {
			return pkgerrors.New(pkgerrors.CodeVersionStale, "session version is stale").
				WithDetails(map[string]any{"expected_version": expected})
		}

		return s.emitter.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCheckoutSessionUpdated,
			AggregateType: enums.AggregateCheckoutSession,
			AggregateID:   session.ID,
			Data: outbox.CheckoutEventData{
				SessionID:  session.ID,
				ProviderID: session.ProviderID,
				Step:       string(session.Step),
				Track:      string(session.Track),
			},
		})
	})
}

func (s *service) loadSession(ctx context.Context, repo Repository, providerID, sessionID uuid.UUID) (*models.CheckoutSession, error) {
	if providerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider id required")
	}
	if sessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	session, err := repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	if session == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "session not found")
	}
	if session.ProviderID != providerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "session belongs to another provider")
	}
	if session.AbandonedAt != nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "session was abandoned")
	}
	return session, nil
}

// hasInspectionFindings reports whether the submitted checklist holds
// anything worth filing: at least one item with a selection or a note.
func hasInspectionFindings(input *InspectionInput) bool {
	if input == nil {
		return false
	}
	for _, item := range input.Items {
		if item.Status != "" && item.Status != enums.InspectionItemNotChecked {
			return true
		}
		if item.Note != nil && strings.TrimSpace(*item.Note) != "" {
			return true
		}
	}
	return false
}

// requireStep rejects any operation called out of wizard order.
func requireStep(session *models.CheckoutSession, expected enums.CheckoutStep) error {
	if session.Step == expected {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, "operation not allowed at this step").
		WithDetails(map[string]any{
			"current_step":  session.Step,
			"expected_step": expected,
		})
}
