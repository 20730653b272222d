package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubroster/internal/adapters/email"
	"clubroster/internal/adapters/http/middleware"
	"clubroster/internal/adapters/metrics"
	accountStore "clubroster/internal/adapters/storage/account"
	clubStore "clubroster/internal/adapters/storage/club"
	memberStore "clubroster/internal/adapters/storage/member"
	"clubroster/internal/adapters/storage/storagetest"
	transferStore "clubroster/internal/adapters/storage/transfer"
	"clubroster/internal/application/projections"
	"clubroster/internal/domain/account"
	"clubroster/internal/domain/birthnumber"
	"clubroster/internal/domain/member"
)

var testNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

var (
	agentC1 = middleware.Session{AccountID: "a1", Email: "agent1@example.com", Role: account.RoleAgent, ClubID: "c1"}
	agentC2 = middleware.Session{AccountID: "a2", Email: "agent2@example.com", Role: account.RoleAgent, ClubID: "c2"}
	admin   = middleware.Session{AccountID: "root", Email: "root@example.com", Role: account.RoleAdmin, ClubID: "c1"}
)

type testEnv struct {
	app     *app
	mux     http.Handler
	stores  *Stores
	sender  *email.NoopSender
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := storagetest.Open(t)
	storagetest.SeedClub(t, db, "c1", "Frisbee Praha")
	storagetest.SeedClub(t, db, "c2", "Brno Disc")

	stores := &Stores{
		AccountStore:  accountStore.NewSQLiteStore(db),
		ClubStore:     clubStore.NewSQLiteStore(db),
		MemberStore:   memberStore.NewSQLiteStore(db),
		TransferStore: transferStore.NewSQLiteStore(db),
	}
	sender := email.NewNoopSender()
	m := metrics.New()
	a := newApp(stores, Options{
		BaseURL:      "https://roster.example",
		Sender:       sender,
		Metrics:      m,
		DecodePolicy: birthnumber.LenientDecode,
	})
	a.now = func() time.Time { return testNow }

	return &testEnv{app: a, mux: a.routes(), stores: stores, sender: sender, metrics: m}
}

// do serves one request as sess. A zero Session sends the request anonymously.
func (e *testEnv) do(t *testing.T, sess middleware.Session, method, target string, form url.Values, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	if sess.AccountID != "" {
		req = req.WithContext(middleware.ContextWithSession(req.Context(), sess))
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seedMember(t *testing.T, m member.Member) {
	t.Helper()
	require.NoError(t, e.stores.MemberStore.Save(context.Background(), m))
}

func adultMember(id, clubID, first, last string) member.Member {
	return member.Member{
		ID:          id,
		ClubID:      clubID,
		FirstName:   first,
		LastName:    last,
		BirthDate:   time.Date(1999, time.January, 1, 0, 0, 0, 0, time.UTC),
		Sex:         member.SexMale,
		Citizenship: "SK",
		Email:       strings.ToLower(first) + "@example.com",
		Active:      true,
		CreatedAt:   testNow.Add(-24 * time.Hour),
	}
}

func adultForm() url.Values {
	return url.Values{
		member.FieldFirstName:   {"Jan"},
		member.FieldLastName:    {"Novak"},
		member.FieldCitizenship: {member.CitizenshipCZ},
		member.FieldBirthNumber: {"990101/0009"},
		member.FieldBirthDate:   {"1999-01-01"},
		member.FieldSex:         {"2"},
		member.FieldEmail:       {"jan@example.com"},
	}
}

func TestAddMember_Success(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, agentC1, http.MethodPost, "/members/add", adultForm(), "HX-Request", "true")
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	assert.Equal(t, eventMemberListChanged, rec.Header().Get("HX-Trigger"))

	sent := e.sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"jan@example.com"}, sent[0].To)
	assert.Contains(t, sent[0].HTML, "https://roster.example/confirm-email/")
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.MemberRegistrations))

	total, err := e.stores.MemberStore.Count(context.Background(), memberStore.ListFilter{ClubID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestAddMember_ValidationErrors(t *testing.T) {
	e := newTestEnv(t)

	t.Run("field errors re-render the form", func(t *testing.T) {
		form := adultForm()
		form.Set(member.FieldFirstName, "")
		form.Set(member.FieldBirthDate, "2000-01-01")

		rec := e.do(t, agentC1, http.MethodPost, "/members/add", form, "HX-Request", "true")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `id="member-form"`)
		assert.Contains(t, body, "This field is required")
		assert.Contains(t, body, "Invalid birth number or birth date")
		// The submitted value survives the re-render.
		assert.Contains(t, body, `value="2000-01-01"`)
	})

	t.Run("unparseable values", func(t *testing.T) {
		form := adultForm()
		form.Set(member.FieldBirthDate, "01.01.1999")
		form.Set(member.FieldDefaultJerseyNumber, "seven")

		rec := e.do(t, agentC1, http.MethodPost, "/members/add", form)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Enter a valid date")
		assert.Contains(t, rec.Body.String(), "Enter a whole number")
	})

	t.Run("duplicate birth number", func(t *testing.T) {
		require.Equal(t, http.StatusNoContent, e.do(t, agentC1, http.MethodPost, "/members/add", adultForm()).Code)

		form := adultForm()
		form.Set(member.FieldEmail, "other@example.com")
		rec := e.do(t, agentC2, http.MethodPost, "/members/add", form)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "Member with this birth number already exists")
	})

	assert.Len(t, e.sender.Sent(), 1)
}

func TestAddMember_AgentCannotPickClub(t *testing.T) {
	e := newTestEnv(t)
	form := adultForm()
	form.Set(formFieldClubID, "c2")

	rec := e.do(t, agentC1, http.MethodPost, "/members/add", form)
	require.Equal(t, http.StatusNoContent, rec.Code)

	inC2, err := e.stores.MemberStore.Count(context.Background(), memberStore.ListFilter{ClubID: "c2"})
	require.NoError(t, err)
	assert.Zero(t, inC2)
}

func TestGetAddMember(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, agentC1, http.MethodGet, "/members/add", nil, "HX-Request", "true")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `id="member-form"`)
	assert.Contains(t, body, `hx-post="/members/add"`)
	// An empty form treats the member as an adult: guardian inputs are off.
	assert.Regexp(t, `name="legal_guardian_email"[^>]*disabled`, body)
	assert.NotContains(t, body, `name="club_id"`)

	rec = e.do(t, admin, http.MethodGet, "/members/add", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="club_id"`)
	assert.Contains(t, rec.Body.String(), "Brno Disc")
}

func TestFormFields_DecodesBirthNumber(t *testing.T) {
	e := newTestEnv(t)

	form := url.Values{
		member.FieldCitizenship: {member.CitizenshipCZ},
		member.FieldBirthNumber: {"1551010010"},
		member.FieldEmail:       {"kid@example.com"},
		formFieldTrigger:        {"birth_number_changed"},
	}
	rec := e.do(t, agentC1, http.MethodPost, "/members/form/fields", form, "HX-Request", "true")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `id="member-fields"`)
	assert.Contains(t, body, `value="2015-01-01"`)
	// Under 15: the member's own email is off, guardian inputs are open.
	assert.Regexp(t, `name="email"[^>]*disabled`, body)
	assert.NotContains(t, body, "kid@example.com")
	assert.NotRegexp(t, `name="legal_guardian_email"[^>]*disabled`, body)

	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.Decodes.WithLabelValues("lenient", metrics.OutcomeOK)))
}

func TestFormFields_AgeGateUsesAppClock(t *testing.T) {
	e := newTestEnv(t)

	// 14 on testNow, 15 on any later wall clock from June 2026.
	form := url.Values{
		member.FieldCitizenship: {"SK"},
		member.FieldBirthDate:   {"2011-06-01"},
		formFieldTrigger:        {"birth_date_blurred"},
	}
	rec := e.do(t, agentC1, http.MethodPost, "/members/form/fields", form)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotRegexp(t, `name="legal_guardian_email"[^>]*disabled`, body)
	assert.Regexp(t, `name="email"[^>]*disabled`, body)
}

func TestFormFields_DecodeError(t *testing.T) {
	e := newTestEnv(t)

	form := url.Values{
		member.FieldCitizenship: {member.CitizenshipCZ},
		member.FieldBirthNumber: {"99a1010009"},
		member.FieldBirthDate:   {"1990-05-05"},
		formFieldTrigger:        {"birth_number_changed"},
	}
	rec := e.do(t, agentC1, http.MethodPost, "/members/form/fields", form)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="decode-error"`)
	assert.Contains(t, rec.Body.String(), `value="1990-05-05"`)
	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.Decodes.WithLabelValues("lenient", metrics.OutcomeError)))
}

func TestEditMember(t *testing.T) {
	e := newTestEnv(t)
	e.seedMember(t, adultMember("m1", "c1", "Petr", "Svoboda"))
	e.seedMember(t, adultMember("m2", "c2", "Eva", "Dvorak"))

	rec := e.do(t, agentC1, http.MethodGet, "/members/m1/edit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `hx-post="/members/m1/edit"`)
	assert.Contains(t, rec.Body.String(), `value="Petr"`)

	form := url.Values{
		member.FieldFirstName:   {"Petr"},
		member.FieldLastName:    {"Svobodny"},
		member.FieldCitizenship: {"SK"},
		member.FieldBirthDate:   {"1999-01-01"},
		member.FieldSex:         {"2"},
		member.FieldEmail:       {"petr@example.com"},
	}
	rec = e.do(t, agentC1, http.MethodPost, "/members/m1/edit", form)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	got, err := e.stores.MemberStore.GetByID(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "Svobodny", got.LastName)
	// The contact address did not change, so no new confirmation is sent.
	assert.Empty(t, e.sender.Sent())

	assert.Equal(t, http.StatusForbidden, e.do(t, agentC1, http.MethodGet, "/members/m2/edit", nil).Code)
	assert.Equal(t, http.StatusForbidden, e.do(t, agentC1, http.MethodPost, "/members/m2/edit", form).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, agentC1, http.MethodGet, "/members/nope/edit", nil).Code)
	assert.Equal(t, http.StatusOK, e.do(t, admin, http.MethodGet, "/members/m2/edit", nil).Code)
}

func TestMemberList(t *testing.T) {
	e := newTestEnv(t)
	e.seedMember(t, adultMember("m1", "c1", "Petr", "Svoboda"))
	e.seedMember(t, adultMember("m2", "c1", "Adam", "Kral"))
	e.seedMember(t, adultMember("m3", "c2", "Eva", "Dvorak"))

	t.Run("json", func(t *testing.T) {
		rec := e.do(t, agentC1, http.MethodGet, "/members?sort=last_name&dir=asc", nil, "Accept", "application/json")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var got projections.GetMemberListResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got.Rows, 2)
		assert.Equal(t, "Adam Kral", got.Rows[0].FullName)
		assert.Equal(t, "Petr Svoboda", got.Rows[1].FullName)
	})

	t.Run("htmx fragment", func(t *testing.T) {
		rec := e.do(t, agentC1, http.MethodGet, "/members", nil, "HX-Request", "true")
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.True(t, strings.HasPrefix(strings.TrimSpace(body), `<div id="member-table"`))
		assert.Contains(t, body, `id="member-m1"`)
		assert.NotContains(t, body, `id="member-m3"`)
		assert.NotContains(t, body, "<html")
	})

	t.Run("full page", func(t *testing.T) {
		rec := e.do(t, agentC1, http.MethodGet, "/members", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "<html")
		assert.Contains(t, rec.Body.String(), "agent1@example.com")
	})

	t.Run("admin picks a club", func(t *testing.T) {
		rec := e.do(t, admin, http.MethodGet, "/members?club_id=c2", nil, "HX-Request", "true")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `id="member-m3"`)

		// Agents cannot look into another club.
		rec = e.do(t, agentC1, http.MethodGet, "/members?club_id=c2", nil, "HX-Request", "true")
		assert.NotContains(t, rec.Body.String(), `id="member-m3"`)
	})

	t.Run("anonymous", func(t *testing.T) {
		rec := e.do(t, middleware.Session{}, http.MethodGet, "/members", nil)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})
}

func TestSetActive(t *testing.T) {
	e := newTestEnv(t)
	e.seedMember(t, adultMember("m1", "c1", "Petr", "Svoboda"))
	e.seedMember(t, adultMember("m2", "c2", "Eva", "Dvorak"))

	rec := e.do(t, agentC1, http.MethodPost, "/members/m1/deactivate", url.Values{})
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, eventMemberListChanged, rec.Header().Get("HX-Trigger"))
	assert.Equal(t, http.StatusConflict, e.do(t, agentC1, http.MethodPost, "/members/m1/deactivate", url.Values{}).Code)

	assert.Equal(t, http.StatusNoContent, e.do(t, agentC1, http.MethodPost, "/members/m1/reactivate", url.Values{}).Code)
	assert.Equal(t, http.StatusConflict, e.do(t, agentC1, http.MethodPost, "/members/m1/reactivate", url.Values{}).Code)

	assert.Equal(t, http.StatusForbidden, e.do(t, agentC1, http.MethodPost, "/members/m2/deactivate", url.Values{}).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, agentC1, http.MethodPost, "/members/nope/deactivate", url.Values{}).Code)
}

func TestSearchMembers(t *testing.T) {
	e := newTestEnv(t)
	e.seedMember(t, adultMember("m1", "c1", "Petr", "Svoboda"))
	e.seedMember(t, adultMember("m2", "c2", "Petra", "Dvorak"))

	rec := e.do(t, agentC1, http.MethodGet, "/members/search?q=pet", nil, "Accept", "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []projections.SearchRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	assert.Len(t, rows, 2)

	rec = e.do(t, agentC1, http.MethodGet, "/members/search?q=pe", nil, "Accept", "application/json")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	assert.Empty(t, rows)

	rec = e.do(t, agentC1, http.MethodGet, "/members/search?q=petra", nil, "HX-Request", "true")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="search-results"`)
	assert.Contains(t, rec.Body.String(), "Brno Disc")
}

func TestTransfers_RequestAndApprove(t *testing.T) {
	e := newTestEnv(t)
	e.seedMember(t, adultMember("m1", "c1", "Petr", "Svoboda"))

	rec := e.do(t, agentC1, http.MethodGet, "/members/transfer-form?member_id=m1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="transfer-form"`)
	assert.Contains(t, rec.Body.String(), "Brno Disc")

	rec = e.do(t, agentC1, http.MethodPost, "/members/transfers", url.Values{
		"member_id":      {"m1"},
		"source_club_id": {"c1"},
		"target_club_id": {"c2"},
	})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	assert.Equal(t, eventTransfersChanged, rec.Header().Get("HX-Trigger"))

	rec = e.do(t, agentC1, http.MethodPost, "/members/transfers", url.Values{
		"member_id":      {"m1"},
		"source_club_id": {"c1"},
		"target_club_id": {"c2"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="transfer-error"`)

	rec = e.do(t, agentC2, http.MethodGet, "/transfers", nil, "Accept", "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []projections.TransferRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.True(t, rows[0].CanApprove)
	id := rows[0].ID

	// The requesting club cannot approve its own request.
	assert.Equal(t, http.StatusConflict, e.do(t, agentC1, http.MethodPost, "/members/transfers/"+id+"/approve", url.Values{}).Code)

	rec = e.do(t, agentC2, http.MethodPost, "/members/transfers/"+id+"/approve", url.Values{})
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, eventTransfersChanged+", "+eventMemberListChanged, rec.Header().Get("HX-Trigger"))

	got, err := e.stores.MemberStore.GetByID(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "c2", got.ClubID)

	assert.Equal(t, http.StatusConflict, e.do(t, agentC2, http.MethodPost, "/members/transfers/"+id+"/approve", url.Values{}).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, agentC2, http.MethodPost, "/members/transfers/nope/approve", url.Values{}).Code)
}

func TestTransfers_RefusedRequest(t *testing.T) {
	e := newTestEnv(t)
	e.seedMember(t, adultMember("m1", "c1", "Petr", "Svoboda"))

	rec := e.do(t, agentC1, http.MethodPost, "/members/transfers", url.Values{
		"member_id":      {"m1"},
		"source_club_id": {"c1"},
		"target_club_id": {"c1"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "already in target club")
}

func TestTransfers_RejectAndRevoke(t *testing.T) {
	e := newTestEnv(t)
	e.seedMember(t, adultMember("m1", "c1", "Petr", "Svoboda"))

	request := func() string {
		rec := e.do(t, agentC1, http.MethodPost, "/members/transfers", url.Values{
			"member_id": {"m1"}, "source_club_id": {"c1"}, "target_club_id": {"c2"},
		})
		require.Equal(t, http.StatusNoContent, rec.Code)
		rec = e.do(t, agentC1, http.MethodGet, "/transfers", nil, "Accept", "application/json")
		var rows []projections.TransferRow
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
		for _, r := range rows {
			if r.CanRevoke {
				return r.ID
			}
		}
		t.Fatal("no revocable transfer")
		return ""
	}

	id := request()
	assert.Equal(t, http.StatusConflict, e.do(t, agentC2, http.MethodPost, "/members/transfers/"+id+"/revoke", url.Values{}).Code)
	assert.Equal(t, http.StatusNoContent, e.do(t, agentC1, http.MethodPost, "/members/transfers/"+id+"/revoke", url.Values{}).Code)

	id = request()
	assert.Equal(t, http.StatusNoContent, e.do(t, agentC2, http.MethodPost, "/members/transfers/"+id+"/reject", url.Values{}).Code)

	got, err := e.stores.MemberStore.GetByID(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "c1", got.ClubID)

	rec := e.do(t, agentC1, http.MethodGet, "/transfers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="transfers-table"`)
}

func TestConfirmEmail(t *testing.T) {
	e := newTestEnv(t)
	m := adultMember("m1", "c1", "Petr", "Svoboda")
	m.EmailConfirmationToken = "tok-1"
	e.seedMember(t, m)

	rec := e.do(t, middleware.Session{}, http.MethodGet, "/confirm-email/tok-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Petr Svoboda")

	rec = e.do(t, middleware.Session{}, http.MethodPost, "/confirm-email/tok-1", url.Values{"data_ok": {"on"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "This field is required")

	rec = e.do(t, middleware.Session{}, http.MethodPost, "/confirm-email/tok-1", url.Values{
		"data_ok":           {"on"},
		"basic_consent":     {"on"},
		"marketing_consent": {"on"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="confirm-done"`)

	got, err := e.stores.MemberStore.GetByID(context.Background(), "m1")
	require.NoError(t, err)
	assert.True(t, got.HasEmailConfirmed())
	assert.Equal(t, testNow, got.MarketingConsentGivenAt.UTC())

	rec = e.do(t, middleware.Session{}, http.MethodGet, "/confirm-email/tok-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="confirm-invalid"`)
}

func TestBirthNumberAPI(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantBody   map[string]any
	}{
		{"adult woman", "value=995101/0003", http.StatusOK,
			map[string]any{"birth_date": "1999-01-01", "sex": 1.0, "sex_name": "female", "is_at_least_15": true}},
		{"child", "value=1551010010", http.StatusOK,
			map[string]any{"birth_date": "2015-01-01", "sex": 1.0, "sex_name": "female", "is_at_least_15": false}},
		{"lenient impossible date", "value=9913011234&mode=lenient", http.StatusOK,
			map[string]any{"birth_date": "1999-13-01", "sex": 2.0, "sex_name": "male", "is_at_least_15": false}},
		{"strict impossible date", "value=9913011234&mode=strict", http.StatusUnprocessableEntity,
			map[string]any{"kind": string(birthnumber.KindInvalidDate)}},
		{"bad characters", "value=99a1011234", http.StatusUnprocessableEntity,
			map[string]any{"kind": string(birthnumber.KindInvalidCharacters)}},
		{"bad length", "value=12345", http.StatusUnprocessableEntity,
			map[string]any{"kind": string(birthnumber.KindInvalidLength)}},
		{"unknown mode", "value=9901010009&mode=bogus", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, middleware.Session{}, http.MethodGet, "/api/birth-number?"+tt.query, nil)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			for k, v := range tt.wantBody {
				assert.Equal(t, v, body[k], k)
			}
			if tt.wantStatus != http.StatusOK {
				assert.NotEmpty(t, body["error"])
			}
		})
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.Decodes.WithLabelValues("strict", metrics.OutcomeError)))
}

func TestLogin(t *testing.T) {
	e := newTestEnv(t)
	acct := account.Account{ID: "a1", Email: "agent1@example.com", Role: account.RoleAgent, ClubID: "c1", CreatedAt: testNow}
	require.NoError(t, acct.SetPassword("correct horse battery"))
	require.NoError(t, e.stores.AccountStore.Save(context.Background(), acct))

	rec := e.do(t, middleware.Session{}, http.MethodGet, "/login", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="login-submit"`)

	rec = e.do(t, middleware.Session{}, http.MethodPost, "/login", url.Values{
		"email": {"agent1@example.com"}, "password": {"wrong password!"},
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="login-error"`)

	rec = e.do(t, middleware.Session{}, http.MethodPost, "/login", url.Values{
		"email": {"agent1@example.com"}, "password": {"correct horse battery"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/members", rec.Header().Get("Location"))

	next := httptest.NewRequest(http.MethodGet, "/members", nil)
	for _, c := range rec.Result().Cookies() {
		next.AddCookie(c)
	}
	token := middleware.SessionToken(next)
	require.NotEmpty(t, token)
	sess, ok := e.app.sessions.Get(token)
	require.True(t, ok)
	assert.Equal(t, "c1", sess.ClubID)

	rec = e.do(t, agentC1, http.MethodGet, "/login", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}
