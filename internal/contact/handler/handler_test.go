package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"linkage/internal/contact/handler/mocks"
	"linkage/internal/contact/service"
	id "linkage/pkg/domain"
	dErrors "linkage/pkg/domain-errors"
)

func newTestRouter(t *testing.T) (chi.Router, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(svc, logger, nil, 5*time.Second)

	r := chi.NewRouter()
	h.Register(r)
	return r, svc
}

func postIdentify(t *testing.T, r chi.Router, body, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/identify", strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func strPtr(s string) *string { return &s }

func TestHandleIdentify_ReturnsConsolidatedCluster(t *testing.T) {
	r, svc := newTestRouter(t)

	primary := id.NewContactID()
	secondary := id.NewContactID()
	svc.EXPECT().
		Resolve(gomock.Any(), strPtr("doc@brown.io"), strPtr("911234567890")).
		Return(&service.Resolution{
			PrimaryID:    primary,
			Emails:       []string{"doc@brown.io", "emmett@brown.io"},
			PhoneNumbers: []string{"911234567890"},
			SecondaryIDs: []id.ContactID{secondary},
		}, nil)

	rec := postIdentify(t, r, `{"email":"doc@brown.io","phoneNumber":"911234567890"}`, "application/json")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"primaryContatctId":"`+primary.String()+`"`)
	assert.Contains(t, rec.Body.String(), `"emails":["doc@brown.io","emmett@brown.io"]`)
	assert.Contains(t, rec.Body.String(), `"phoneNumbers":["911234567890"]`)
	assert.Contains(t, rec.Body.String(), `"secondaryContactIds":["`+secondary.String()+`"]`)
}

func TestHandleIdentify_AcceptsNumericPhoneNumber(t *testing.T) {
	r, svc := newTestRouter(t)

	svc.EXPECT().
		Resolve(gomock.Any(), nil, strPtr("123456")).
		Return(&service.Resolution{PrimaryID: id.NewContactID()}, nil)

	rec := postIdentify(t, r, `{"phoneNumber":123456}`, "application/json")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleIdentify_EmptySlicesSerializeAsArrays(t *testing.T) {
	r, svc := newTestRouter(t)

	svc.EXPECT().
		Resolve(gomock.Any(), strPtr("lone@wolf.io"), nil).
		Return(&service.Resolution{
			PrimaryID: id.NewContactID(),
			Emails:    []string{"lone@wolf.io"},
		}, nil)

	rec := postIdentify(t, r, `{"email":"lone@wolf.io"}`, "application/json")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"phoneNumbers":[]`)
	assert.Contains(t, rec.Body.String(), `"secondaryContactIds":[]`)
}

func TestHandleIdentify_RejectsEmptyClaim(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := postIdentify(t, r, `{}`, "application/json")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"bad_request"}`, rec.Body.String())
}

func TestHandleIdentify_RejectsBlankValues(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := postIdentify(t, r, `{"email":"","phoneNumber":""}`, "application/json")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleIdentify_RejectsMalformedBody(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := postIdentify(t, r, `{"email":`, "application/json")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"bad_request"}`, rec.Body.String())
}

func TestHandleIdentify_RejectsNonJSONContentType(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := postIdentify(t, r, `email=doc@brown.io`, "text/plain")

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestHandleIdentify_ValidationErrorPassesThrough(t *testing.T) {
	r, svc := newTestRouter(t)

	svc.EXPECT().
		Resolve(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeValidation, "either email or phoneNumber must be provided"))

	rec := postIdentify(t, r, `{"email":"doc@brown.io"}`, "application/json")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"validation"}`, rec.Body.String())
}

func TestHandleIdentify_InternalErrorsAreOpaque(t *testing.T) {
	r, svc := newTestRouter(t)

	svc.EXPECT().
		Resolve(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, assert.AnError)

	rec := postIdentify(t, r, `{"email":"doc@brown.io"}`, "application/json")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}
