package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"housing/internal/identity"
	"housing/internal/intake"
	"housing/internal/notify"
	"housing/internal/preapproval"
	"housing/pkg/logger"
	"housing/pkg/metrics"
	"housing/pkg/supabase"
)

// AnonymousSigner creates an ephemeral identity for applicants without an account.
type AnonymousSigner interface {
	SignInAnonymously(ctx context.Context) (*supabase.Session, error)
}

// Gateway turns a completed intake form into exactly one stored application.
type Gateway struct {
	Store      Store
	Policy     preapproval.Policy
	Identities AnonymousSigner
	Notifier   notify.Notifier
	Now        func() time.Time
}

type SubmitRequest struct {
	FormData map[string]any `json:"formData"`
	RoomID   string         `json:"roomId,omitempty"`
}

type Submission struct {
	Application *Application       `json:"application"`
	PreApproval preapproval.Result `json:"preApproval"`
	// Session is set when an anonymous identity was created for this submission.
	Session *supabase.Session `json:"-"`
}

// Submit validates, classifies and persists one application. It is not idempotent:
// submitting the same form twice stores two records.
func (g *Gateway) Submit(ctx context.Context, caller *identity.Identity, req SubmitRequest) (*Submission, error) {
	form, err := intake.FromValues(req.FormData)
	if err != nil {
		return nil, &ValidationError{Code: "UNKNOWN_FIELD", Message: err.Error()}
	}
	if err := form.ValidateAll(); err != nil {
		return nil, &ValidationError{Code: "STEP_INCOMPLETE", Message: "required fields are missing", Missing: form.AllMissing()}
	}
	values := form.Values()
	details, err := validateSchema(values)
	if err != nil {
		return nil, err
	}
	if len(details) > 0 {
		return nil, &ValidationError{Code: "INVALID_FORM_DATA", Message: "form data is malformed", Details: details}
	}

	roomID, err := roomReference(req.RoomID, values)
	if err != nil {
		return nil, err
	}

	// Check the room before an anonymous identity is minted for a submission that cannot be stored.
	if roomID != nil {
		ok, err := g.Store.RoomExists(ctx, *roomID)
		if err != nil {
			return nil, fmt.Errorf("check room: %w", err)
		}
		if !ok {
			return nil, ErrRoomNotFound
		}
	}

	result := g.Policy.Classify(preapproval.FromForm(values))

	applicantID, session, err := g.applicant(ctx, caller)
	if err != nil {
		return nil, err
	}

	blob, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("encode form data: %w", err)
	}

	app, err := g.Store.Create(ctx, NewApplication{
		ApplicantID:       applicantID,
		RoomID:            roomID,
		Status:            Status(result.Status),
		FormData:          blob,
		PreApprovalReason: result.Reason,
		Issues:            result.Issues,
		SubmittedAt:       g.now(),
	})
	if err != nil {
		return nil, err
	}
	metrics.ApplicationsSubmitted.WithLabelValues(string(app.Status)).Inc()

	g.notifyReceived(ctx, app)

	return &Submission{Application: app, PreApproval: result, Session: session}, nil
}

func (g *Gateway) applicant(ctx context.Context, caller *identity.Identity) (string, *supabase.Session, error) {
	if caller != nil && caller.UserID != "" {
		return caller.UserID, nil, nil
	}
	if g.Identities == nil {
		return "", nil, fmt.Errorf("%w: no identity provider", ErrIdentity)
	}
	s, err := g.Identities.SignInAnonymously(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrIdentity, err)
	}
	return s.User.ID, s, nil
}

func (g *Gateway) notifyReceived(ctx context.Context, app *Application) {
	if g.Notifier == nil {
		return
	}
	err := g.Notifier.ApplicationReceived(ctx, notify.Receipt{
		ApplicationID: app.ID,
		To:            app.answer("email"),
		Name:          app.answer("full_name"),
		Status:        string(app.Status),
	})
	if err != nil {
		logger.FromContext(ctx).Warn("application receipt email failed",
			zap.String("application_id", app.ID), zap.Error(err))
	}
}

func (g *Gateway) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

// roomReference prefers the explicit room id and falls back to the form's room_id answer.
func roomReference(explicit string, values map[string]any) (*string, error) {
	ref := strings.TrimSpace(explicit)
	if ref == "" {
		s, _ := values["room_id"].(string)
		ref = strings.TrimSpace(s)
	}
	if ref == "" {
		return nil, nil
	}
	id, err := uuid.Parse(ref)
	if err != nil {
		return nil, &ValidationError{Code: "INVALID_ROOM", Message: "room id is not valid"}
	}
	s := id.String()
	return &s, nil
}

// IsValidation reports whether err should be shown to the applicant as a form problem.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrRoomNotFound)
}
