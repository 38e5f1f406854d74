package httpx

import (
	"errors"
	"net/http"

	"github.com/codequest/codequest-web/internal/domain/model"
	apperrors "github.com/codequest/codequest-web/internal/errors"
)

// FormOpts describes a form page re-rendered after a failed submit.
type FormOpts struct {
	Page   string
	Meta   PageMeta
	Err    error
	Data   map[string]any // form values and page extras to preserve
	Status int            // defaults to the status mapped from Err
}

// formErrors splits err into field-level messages and a general message.
// Unknown errors produce a generic message; their detail is only logged.
func formErrors(err error) (map[string]string, string) {
	if err == nil {
		return nil, ""
	}
	var fe model.FieldErrors
	if errors.As(err, &fe) {
		return fe, ""
	}
	if field := apperrors.GetField(err); field != "" {
		return map[string]string{field: apperrors.UserMessage(err)}, ""
	}
	return nil, apperrors.UserMessage(err)
}

// renderForm re-renders a form with its errors and the submitted values.
func (h *Handlers) renderForm(w http.ResponseWriter, r *http.Request, opts FormOpts) {
	status := opts.Status
	var fe model.FieldErrors
	switch {
	case status != 0:
	case errors.As(opts.Err, &fe):
		status = http.StatusUnprocessableEntity
	default:
		status = apperrors.HTTPStatus(opts.Err)
		if status == http.StatusBadRequest {
			status = http.StatusUnprocessableEntity
		}
	}
	if status >= http.StatusInternalServerError {
		h.logError(r, opts.Err)
	}

	fields, general := formErrors(opts.Err)
	b := NewTemplateData(r, opts.Meta).WithFieldErrors(fields)
	if general != "" {
		b.WithError(general)
	}
	for k, v := range opts.Data {
		b.With(k, v)
	}
	h.Renderer.Page(w, r, status, opts.Page, b.Build())
}

// renderError answers a failed page or API request. Internal errors are
// logged and counted; the client only sees a safe message.
func (h *Handlers) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logError(r, err)
	}
	if wantsJSON(r) {
		WriteAppError(w, err)
		return
	}
	if status == http.StatusNotFound {
		h.notFound(w, r)
		return
	}
	data := NewTemplateData(r, PageMeta{Title: http.StatusText(status)}).
		With("Status", status).
		With("Message", apperrors.UserMessage(err)).
		Build()
	h.Renderer.Page(w, r, status, PageError, data)
}

func (h *Handlers) notFound(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errors.New("not found")})
		return
	}
	h.Renderer.Page(w, r, http.StatusNotFound, PageNotFound, NewTemplateData(r, PageMeta{Title: "Not found"}).Build())
}

func (h *Handlers) logError(r *http.Request, err error) {
	h.Metrics.RecordHandlerError(err)
	h.logger().ErrorContext(r.Context(), "request failed",
		"method", r.Method, "path", r.URL.Path, "error", err)
}
