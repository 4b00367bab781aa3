package controllers

import (
	"net/http"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/api/middleware"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/api/responses"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/api/validators"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/internal/checkout"
	pkgerrors "github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/errors"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/logger"
)

// StartCheckout opens a walk-in session at the phone entry step.
func StartCheckout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		session, err := svc.Start(r.Context(), middleware.ProviderIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

func GetCheckoutSession(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		sessionID, err := validators.ParseURLParamUUID(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Get(r.Context(), middleware.ProviderIDFromContext(r.Context()), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

type lookupRequest struct {
	Phone string `json:"phone" validate:"required,e164"`
}

// LookupCustomer finds or shells a customer by phone and sends the OTP.
func LookupCustomer(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		sessionID, err := validators.ParseURLParamUUID(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input lookupRequest
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.LookupCustomer(r.Context(), middleware.ProviderIDFromContext(r.Context()), sessionID, input.Phone)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// VerifyCustomer checks the OTP and, for new customers, records their name.
func VerifyCustomer(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		sessionID, err := validators.ParseURLParamUUID(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input checkout.VerifyInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Verify(r.Context(), middleware.ProviderIDFromContext(r.Context()), sessionID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type resumeRequest struct {
	JobID string `json:"job_id" validate:"required,uuid"`
}

// ResumeJob jumps the session to payment for an accepted marketplace bid.
func ResumeJob(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		sessionID, err := validators.ParseURLParamUUID(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input resumeRequest
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		jobID, err := parseUUID(input.JobID, "job_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ResumeJob(r.Context(), middleware.ProviderIDFromContext(r.Context()), sessionID, jobID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func SelectVehicle(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		sessionID, err := validators.ParseURLParamUUID(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input checkout.VehicleInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.SelectVehicle(r.Context(), middleware.ProviderIDFromContext(r.Context()), sessionID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

// EnterService prices the line items with the provider's state tax applied.
func EnterService(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		sessionID, err := validators.ParseURLParamUUID(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input checkout.ServiceInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.EnterService(r.Context(), middleware.ProviderIDFromContext(r.Context()), sessionID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

// AuthorizeCheckout captures the waiver signature and opens the payment intent.
func AuthorizeCheckout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		sessionID, err := validators.ParseURLParamUUID(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input checkout.AuthorizeInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Authorize(r.Context(), middleware.ProviderIDFromContext(r.Context()), sessionID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ConfirmCheckoutPayment settles the session once the intent succeeded.
func ConfirmCheckoutPayment(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		sessionID, err := validators.ParseURLParamUUID(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.ConfirmPayment(r.Context(), middleware.ProviderIDFromContext(r.Context()), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

// SendReceipt delivers the receipt over the chosen channels.
func SendReceipt(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		sessionID, err := validators.ParseURLParamUUID(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input checkout.ReceiptInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		receipt, err := svc.SendReceipt(r.Context(), middleware.ProviderIDFromContext(r.Context()), sessionID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, receipt)
	}
}

// ScheduleReminder books a maintenance follow-up from the finished session.
func ScheduleReminder(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		sessionID, err := validators.ParseURLParamUUID(r, "sessionID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input checkout.ReminderInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reminder, err := svc.ScheduleReminder(r.Context(), middleware.ProviderIDFromContext(r.Context()), sessionID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, reminder)
	}
}
