package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	agencyservice "mandat/internal/agency/service"
	agencystore "mandat/internal/agency/store"
	invservice "mandat/internal/investigator/service"
	invstore "mandat/internal/investigator/store"
	"mandat/internal/mandate/models"
	mandateservice "mandat/internal/mandate/service"
	mandatestore "mandat/internal/mandate/store"
	"mandat/internal/notification"
	notifstore "mandat/internal/notification/store"
	id "mandat/pkg/domain"
	"mandat/pkg/requestcontext"
	"mandat/pkg/testutil"
)

// =============================================================================
// Mandate Handler Test Suite
// =============================================================================
// End-to-end over the real services and in-memory stores; only the HTTP layer
// and auth middleware are simulated.

type HandlerSuite struct {
	suite.Suite
	router        chi.Router
	agencies      *agencyservice.Service
	investigators *invservice.Service
	workflow      *mandateservice.Service
	now           time.Time
	ctx           context.Context
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.now = time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	s.agencies = agencyservice.NewService(agencystore.NewInMemory())
	s.investigators = invservice.NewService(invstore.NewInMemory())
	dispatcher := notification.NewDispatcher(notifstore.NewInMemory())
	s.workflow = mandateservice.NewService(
		mandatestore.NewInMemoryMandates(),
		mandatestore.NewInMemoryCandidatures(),
		s.investigators,
		s.agencies,
		dispatcher,
	)

	s.router = chi.NewRouter()
	s.router.Use(s.fixedTime)
	New(s.workflow, s.agencies, s.investigators).RegisterRoutes(s.router)
}

// fixedTime pins the request clock so date validation is deterministic.
func (s *HandlerSuite) fixedTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(requestcontext.WithTime(r.Context(), s.now)))
	})
}

func (s *HandlerSuite) verifiedAgencyOwner() id.UserID {
	owner := id.NewUserID()
	agency, err := s.agencies.Register(s.ctx, owner, "Agence Quebec Investigations", "PI-12345", "Montreal", "Montreal")
	s.Require().NoError(err)
	_, err = s.agencies.ReviewLicense(s.ctx, agency.ID, true)
	s.Require().NoError(err)
	return owner
}

func (s *HandlerSuite) investigatorUser(name string) id.UserID {
	user := id.NewUserID()
	_, err := s.investigators.Register(s.ctx, user, name, "Montreal", "Montreal")
	s.Require().NoError(err)
	return user
}

func (s *HandlerSuite) do(method, path string, user id.UserID, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req = testutil.WithUser(req, user.String())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) createBody(dateRequired time.Time) map[string]any {
	return map[string]any{
		"title":           "Insurance fraud surveillance",
		"type":            "surveillance",
		"location":        map[string]any{"city": "Montreal", "region": "Montreal"},
		"date_required":   dateRequired.Format(time.RFC3339),
		"duration_hours":  8,
		"assignment_type": "public",
	}
}

func (s *HandlerSuite) postMandate(owner id.UserID) models.Mandate {
	rec := s.do(http.MethodPost, "/mandates", owner, s.createBody(s.now.Add(72*time.Hour)))
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var m models.Mandate
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func (s *HandlerSuite) apply(mandateID id.MandateID, investigatorUser id.UserID) models.Candidature {
	rec := s.do(http.MethodPost, "/mandates/"+mandateID.String()+"/candidatures", investigatorUser, nil)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var c models.Candidature
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &c))
	return c
}

func (s *HandlerSuite) TestCreateMandate() {
	s.Run("verified agency posts an open mandate", func() {
		owner := s.verifiedAgencyOwner()
		m := s.postMandate(owner)
		s.Equal(models.StatusOpen, m.Status)
		s.Equal(models.AssignmentPublic, m.AssignmentType)
	})

	s.Run("unverified agency is rejected", func() {
		owner := id.NewUserID()
		_, err := s.agencies.Register(s.ctx, owner, "Agence Nord", "PI-00001", "Quebec", "Capitale-Nationale")
		s.Require().NoError(err)

		rec := s.do(http.MethodPost, "/mandates", owner, s.createBody(s.now.Add(72*time.Hour)))
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
		s.Contains(rec.Body.String(), "license")
	})

	s.Run("required date under the lead time is rejected", func() {
		owner := s.verifiedAgencyOwner()
		rec := s.do(http.MethodPost, "/mandates", owner, s.createBody(s.now.Add(23*time.Hour)))
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
		s.Contains(rec.Body.String(), "24 hours")
	})

	s.Run("caller without an agency gets not found", func() {
		rec := s.do(http.MethodPost, "/mandates", id.NewUserID(), s.createBody(s.now.Add(72*time.Hour)))
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *HandlerSuite) TestCandidatureFlow() {
	owner := s.verifiedAgencyOwner()
	m := s.postMandate(owner)
	invUser := s.investigatorUser("Marie Tremblay")

	s.Run("investigator applies once", func() {
		c := s.apply(m.ID, invUser)
		s.Equal(models.CandidatureInterested, c.Status)

		rec := s.do(http.MethodPost, "/mandates/"+m.ID.String()+"/candidatures", invUser, nil)
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
		s.Contains(rec.Body.String(), "already applied")
	})

	s.Run("owner accepts and the mandate moves in-progress", func() {
		candidatures, err := s.workflow.ListMandateCandidatures(s.ctx, m.ID)
		s.Require().NoError(err)
		s.Require().Len(candidatures, 1)

		rec := s.do(http.MethodPost, "/mandates/"+m.ID.String()+"/candidatures/"+candidatures[0].ID.String()+"/accept", owner, nil)
		s.Equal(http.StatusOK, rec.Code, rec.Body.String())

		rec = s.do(http.MethodGet, "/mandates/"+m.ID.String(), owner, nil)
		s.Require().Equal(http.StatusOK, rec.Code)
		var stored models.Mandate
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &stored))
		s.Equal(models.StatusInProgress, stored.Status)
		s.NotNil(stored.AssignedTo)
	})

	s.Run("another agency cannot accept on this mandate", func() {
		other := s.verifiedAgencyOwner()
		rec := s.do(http.MethodPost, "/mandates/"+m.ID.String()+"/candidatures/"+id.NewCandidatureID().String()+"/accept", other, nil)
		s.Equal(http.StatusForbidden, rec.Code)
	})
}

func (s *HandlerSuite) TestUnassign() {
	owner := s.verifiedAgencyOwner()
	m := s.postMandate(owner)
	invUser := s.investigatorUser("Marie Tremblay")
	c := s.apply(m.ID, invUser)

	rec := s.do(http.MethodPost, "/mandates/"+m.ID.String()+"/candidatures/"+c.ID.String()+"/accept", owner, nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/mandates/"+m.ID.String()+"/unassign", owner, nil)
	s.Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/mandates/"+m.ID.String(), owner, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var stored models.Mandate
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &stored))
	s.Equal(models.StatusOpen, stored.Status)
	s.Nil(stored.AssignedTo)

	rec = s.do(http.MethodPost, "/mandates/"+m.ID.String()+"/unassign", owner, nil)
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
}

func (s *HandlerSuite) TestStatusAndRating() {
	owner := s.verifiedAgencyOwner()
	m := s.postMandate(owner)
	invUser := s.investigatorUser("Marie Tremblay")
	c := s.apply(m.ID, invUser)

	rec := s.do(http.MethodPost, "/mandates/"+m.ID.String()+"/candidatures/"+c.ID.String()+"/accept", owner, nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	s.Run("illegal transition is rejected", func() {
		rec := s.do(http.MethodPost, "/mandates/"+m.ID.String()+"/status", owner, map[string]any{"status": "expired"})
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
	})

	s.Run("rating an unfinished mandate fails", func() {
		rec := s.do(http.MethodPost, "/mandates/"+m.ID.String()+"/rating", owner, map[string]any{"score": 5})
		s.Equal(http.StatusConflict, rec.Code)
	})

	s.Run("complete then rate once", func() {
		rec := s.do(http.MethodPost, "/mandates/"+m.ID.String()+"/status", owner, map[string]any{"status": "completed"})
		s.Equal(http.StatusOK, rec.Code, rec.Body.String())

		rec = s.do(http.MethodPost, "/mandates/"+m.ID.String()+"/rating", owner, map[string]any{"score": 5, "comment": "Travail impeccable"})
		s.Equal(http.StatusCreated, rec.Code, rec.Body.String())

		rec = s.do(http.MethodGet, "/mandates/"+m.ID.String()+"/rating", owner, nil)
		s.Require().Equal(http.StatusOK, rec.Code)
		var rating models.Rating
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &rating))
		s.Equal(5, rating.Score)

		rec = s.do(http.MethodPost, "/mandates/"+m.ID.String()+"/rating", owner, map[string]any{"score": 4})
		s.Equal(http.StatusConflict, rec.Code)
	})
}

func (s *HandlerSuite) TestListings() {
	owner := s.verifiedAgencyOwner()
	m := s.postMandate(owner)
	invUser := s.investigatorUser("Marie Tremblay")
	s.apply(m.ID, invUser)

	s.Run("agency sees its mandates", func() {
		rec := s.do(http.MethodGet, "/mandates", owner, nil)
		s.Require().Equal(http.StatusOK, rec.Code)
		var out []models.Mandate
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out))
		s.Len(out, 1)
	})

	s.Run("investigators browse open mandates", func() {
		rec := s.do(http.MethodGet, "/mandates/open", invUser, nil)
		s.Require().Equal(http.StatusOK, rec.Code)
		var out []models.Mandate
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out))
		s.Len(out, 1)
	})

	s.Run("investigator sees own candidatures", func() {
		rec := s.do(http.MethodGet, "/candidatures", invUser, nil)
		s.Require().Equal(http.StatusOK, rec.Code)
		var out []models.Candidature
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out))
		s.Require().Len(out, 1)
		s.Equal(m.ID, out[0].MandateID)
	})
}
