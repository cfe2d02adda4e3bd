package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	agencymodels "mandat/internal/agency/models"
	agencyservice "mandat/internal/agency/service"
	agencystore "mandat/internal/agency/store"
	invmodels "mandat/internal/investigator/models"
	invservice "mandat/internal/investigator/service"
	invstore "mandat/internal/investigator/store"
	"mandat/internal/mandate/metrics"
	"mandat/internal/mandate/models"
	"mandat/internal/mandate/store"
	"mandat/internal/notification"
	notifstore "mandat/internal/notification/store"
	id "mandat/pkg/domain"
	dErrors "mandat/pkg/domain-errors"
	"mandat/pkg/requestcontext"
)

// =============================================================================
// Workflow Orchestrator Test Suite
// =============================================================================
// End-to-end scenarios over in-memory stores and a real dispatcher, so the
// notification side effects are observable through the inbox.

type ServiceSuite struct {
	suite.Suite
	ctx           context.Context
	now           time.Time
	mandates      *store.InMemoryMandates
	candidatures  *store.InMemoryCandidatures
	notifications *notifstore.InMemory
	dispatcher    *notification.Dispatcher
	investigators *invservice.Service
	agencies      *agencyservice.Service
	service       *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.now = time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	s.mandates = store.NewInMemoryMandates()
	s.candidatures = store.NewInMemoryCandidatures()
	s.notifications = notifstore.NewInMemory()
	s.dispatcher = notification.NewDispatcher(s.notifications)
	s.investigators = invservice.NewService(invstore.NewInMemory())
	s.agencies = agencyservice.NewService(agencystore.NewInMemory())

	s.service = NewService(s.mandates, s.candidatures, s.investigators, s.agencies, s.dispatcher)
}

func (s *ServiceSuite) newVerifiedAgency() *agencymodels.Agency {
	agency, err := s.agencies.Register(s.ctx, id.NewUserID(), "Agence Quebec Investigations", "PI-12345", "Montreal", "Montreal")
	s.Require().NoError(err)
	agency, err = s.agencies.ReviewLicense(s.ctx, agency.ID, true)
	s.Require().NoError(err)
	return agency
}

func (s *ServiceSuite) newInvestigator(name string) *invmodels.Investigator {
	inv, err := s.investigators.Register(s.ctx, id.NewUserID(), name, "Montreal", "Montreal")
	s.Require().NoError(err)
	return inv
}

func (s *ServiceSuite) newOpenMandate(agency *agencymodels.Agency) *models.Mandate {
	dateRequired := s.now.Add(72 * time.Hour)
	mandate, decision, err := s.service.CreateMandate(s.ctx, CreateMandateInput{
		AgencyID:       agency.ID,
		Title:          "Insurance fraud surveillance",
		Type:           "surveillance",
		Location:       models.Location{City: "Montreal", Region: "Montreal"},
		DateRequired:   &dateRequired,
		AssignmentType: models.AssignmentPublic,
	})
	s.Require().NoError(err)
	s.Require().True(decision.Valid)
	return mandate
}

func (s *ServiceSuite) apply(mandateID id.MandateID, inv *invmodels.Investigator) *models.Candidature {
	candidature, decision, err := s.service.ApplyToMandate(s.ctx, mandateID, inv.ID)
	s.Require().NoError(err)
	s.Require().True(decision.Valid)
	return candidature
}

func (s *ServiceSuite) inboxOf(userID id.UserID) []*notification.Notification {
	out, err := s.dispatcher.List(s.ctx, userID)
	s.Require().NoError(err)
	return out
}

func (s *ServiceSuite) TestCreateMandate() {
	s.Run("unverified agency cannot post", func() {
		agency, err := s.agencies.Register(s.ctx, id.NewUserID(), "Agence Pending", "PI-99999", "Quebec", "Capitale-Nationale")
		s.Require().NoError(err)

		dateRequired := s.now.Add(72 * time.Hour)
		_, decision, err := s.service.CreateMandate(s.ctx, CreateMandateInput{
			AgencyID:       agency.ID,
			Title:          "Background check",
			DateRequired:   &dateRequired,
			AssignmentType: models.AssignmentPublic,
		})
		s.NoError(err)
		s.False(decision.Valid)
		s.Equal("agency license must be verified before posting mandates", decision.Reason)
	})

	s.Run("required date under the 24 hour lead time is rejected", func() {
		agency := s.newVerifiedAgency()
		dateRequired := s.now.Add(23 * time.Hour)
		_, decision, err := s.service.CreateMandate(s.ctx, CreateMandateInput{
			AgencyID:       agency.ID,
			Title:          "Rush job",
			DateRequired:   &dateRequired,
			AssignmentType: models.AssignmentPublic,
		})
		s.NoError(err)
		s.False(decision.Valid)
		s.Equal("required date must be at least 24 hours away", decision.Reason)
	})

	s.Run("public mandate starts open and announces to available investigators in region", func() {
		agency := s.newVerifiedAgency()
		local := s.newInvestigator("Marie Tremblay")
		remote, err := s.investigators.Register(s.ctx, id.NewUserID(), "Jean Gagnon", "Gatineau", "Outaouais")
		s.Require().NoError(err)

		mandate := s.newOpenMandate(agency)
		s.Equal(models.StatusOpen, mandate.Status)
		s.Nil(mandate.AssignedTo)

		inbox := s.inboxOf(local.UserID)
		s.Require().Len(inbox, 1)
		s.Equal(notification.TypeNewMandate, inbox[0].Type)
		s.Empty(s.inboxOf(remote.UserID))
	})

	s.Run("direct mandate is assigned and in-progress on creation", func() {
		agency := s.newVerifiedAgency()
		inv := s.newInvestigator("Luc Bouchard")
		dateRequired := s.now.Add(72 * time.Hour)

		mandate, decision, err := s.service.CreateMandate(s.ctx, CreateMandateInput{
			AgencyID:       agency.ID,
			Title:          "Locate a witness",
			DateRequired:   &dateRequired,
			AssignmentType: models.AssignmentDirect,
			InvestigatorID: &inv.ID,
		})
		s.NoError(err)
		s.True(decision.Valid)
		s.Equal(models.StatusInProgress, mandate.Status)
		s.Require().NotNil(mandate.AssignedTo)
		s.Equal(inv.ID, *mandate.AssignedTo)

		inbox := s.inboxOf(inv.UserID)
		s.Require().Len(inbox, 1)
		s.Equal(notification.TypeMandateAssigned, inbox[0].Type)
	})

	s.Run("direct mandate without an investigator is rejected", func() {
		agency := s.newVerifiedAgency()
		dateRequired := s.now.Add(72 * time.Hour)
		_, decision, err := s.service.CreateMandate(s.ctx, CreateMandateInput{
			AgencyID:       agency.ID,
			Title:          "Locate a witness",
			DateRequired:   &dateRequired,
			AssignmentType: models.AssignmentDirect,
		})
		s.NoError(err)
		s.False(decision.Valid)
	})
}

func (s *ServiceSuite) TestAssignInvestigator() {
	s.Run("re-assigning the current holder is a quiet no-op", func() {
		workflowMetrics := metrics.NewWith(prometheus.NewRegistry())
		svc := NewService(s.mandates, s.candidatures, s.investigators, s.agencies, s.dispatcher,
			WithMetrics(workflowMetrics))

		agency := s.newVerifiedAgency()
		mandate := s.newOpenMandate(agency)
		inv := s.newInvestigator("Marie Tremblay")

		decision, err := svc.AssignInvestigator(s.ctx, mandate.ID, inv.ID)
		s.Require().NoError(err)
		s.Require().True(decision.Valid)

		decision, err = svc.AssignInvestigator(s.ctx, mandate.ID, inv.ID)
		s.NoError(err)
		s.True(decision.Valid)

		// The second call changed nothing, so it must not notify again or
		// count another assignment or transition.
		var assignedNotes []*notification.Notification
		for _, n := range s.inboxOf(inv.UserID) {
			if n.Type == notification.TypeMandateAssigned {
				assignedNotes = append(assignedNotes, n)
			}
		}
		s.Require().Len(assignedNotes, 1)
		s.Equal(float64(1), promtestutil.ToFloat64(workflowMetrics.AssignmentsTotal))
		s.Equal(float64(1), promtestutil.ToFloat64(
			workflowMetrics.TransitionsTotal.WithLabelValues("open", "in-progress")))
		s.Equal(float64(0), promtestutil.ToFloat64(
			workflowMetrics.TransitionsTotal.WithLabelValues("in-progress", "in-progress")))
	})

	s.Run("completed mandate cannot be re-assigned to its former holder", func() {
		agency := s.newVerifiedAgency()
		mandate := s.newOpenMandate(agency)
		inv := s.newInvestigator("Marie Tremblay")

		decision, err := s.service.AssignInvestigator(s.ctx, mandate.ID, inv.ID)
		s.Require().NoError(err)
		s.Require().True(decision.Valid)
		decision, err = s.service.TransitionStatus(s.ctx, mandate.ID, models.StatusCompleted)
		s.Require().NoError(err)
		s.Require().True(decision.Valid)

		decision, err = s.service.AssignInvestigator(s.ctx, mandate.ID, inv.ID)
		s.NoError(err)
		s.False(decision.Valid)
		s.Equal("mandate status does not allow assignment", decision.Reason)

		unchanged, err := s.service.GetMandate(s.ctx, mandate.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusCompleted, unchanged.Status)
	})
}

func (s *ServiceSuite) TestApplyToMandate() {
	s.Run("candidature is created and the agency owner notified", func() {
		agency := s.newVerifiedAgency()
		mandate := s.newOpenMandate(agency)
		inv := s.newInvestigator("Marie Tremblay")

		candidature := s.apply(mandate.ID, inv)
		s.Equal(models.CandidatureInterested, candidature.Status)
		s.Equal(mandate.ID, candidature.MandateID)

		inbox := s.inboxOf(agency.OwnerUserID)
		s.Require().Len(inbox, 1)
		s.Equal(notification.TypeUpdate, inbox[0].Type)
	})

	s.Run("second application by the same investigator is rejected", func() {
		agency := s.newVerifiedAgency()
		mandate := s.newOpenMandate(agency)
		inv := s.newInvestigator("Marie Tremblay")
		s.apply(mandate.ID, inv)

		_, decision, err := s.service.ApplyToMandate(s.ctx, mandate.ID, inv.ID)
		s.NoError(err)
		s.False(decision.Valid)
		s.Equal("investigator has already applied to this mandate", decision.Reason)
	})

	s.Run("direct mandates do not accept candidatures", func() {
		agency := s.newVerifiedAgency()
		inv := s.newInvestigator("Luc Bouchard")
		other := s.newInvestigator("Marie Tremblay")
		dateRequired := s.now.Add(72 * time.Hour)
		mandate, decision, err := s.service.CreateMandate(s.ctx, CreateMandateInput{
			AgencyID:       agency.ID,
			Title:          "Locate a witness",
			DateRequired:   &dateRequired,
			AssignmentType: models.AssignmentDirect,
			InvestigatorID: &inv.ID,
		})
		s.Require().NoError(err)
		s.Require().True(decision.Valid)

		_, decision, err = s.service.ApplyToMandate(s.ctx, mandate.ID, other.ID)
		s.NoError(err)
		s.False(decision.Valid)
	})
}

func (s *ServiceSuite) TestAcceptCandidature() {
	s.Run("accept assigns the mandate and notifies exactly once", func() {
		agency := s.newVerifiedAgency()
		mandate := s.newOpenMandate(agency)
		inv := s.newInvestigator("Marie Tremblay")
		candidature := s.apply(mandate.ID, inv)

		decision, err := s.service.AcceptCandidature(s.ctx, candidature.ID, mandate.ID, inv.ID)
		s.NoError(err)
		s.True(decision.Valid)

		updated, err := s.service.GetMandate(s.ctx, mandate.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusInProgress, updated.Status)
		s.Require().NotNil(updated.AssignedTo)
		s.Equal(inv.ID, *updated.AssignedTo)

		resolved, err := s.service.GetCandidature(s.ctx, candidature.ID)
		s.Require().NoError(err)
		s.Equal(models.CandidatureAccepted, resolved.Status)

		var accepted []*notification.Notification
		for _, n := range s.inboxOf(inv.UserID) {
			if n.Type == notification.TypeAccepted {
				accepted = append(accepted, n)
			}
		}
		s.Require().Len(accepted, 1)
		s.Contains(accepted[0].Message, "Insurance fraud surveillance")
	})

	s.Run("accept rejects sibling candidatures and notifies them", func() {
		agency := s.newVerifiedAgency()
		mandate := s.newOpenMandate(agency)
		winner := s.newInvestigator("Marie Tremblay")
		loser := s.newInvestigator("Jean Gagnon")
		winning := s.apply(mandate.ID, winner)
		losing := s.apply(mandate.ID, loser)

		decision, err := s.service.AcceptCandidature(s.ctx, winning.ID, mandate.ID, winner.ID)
		s.Require().NoError(err)
		s.Require().True(decision.Valid)

		sibling, err := s.service.GetCandidature(s.ctx, losing.ID)
		s.Require().NoError(err)
		s.Equal(models.CandidatureRejected, sibling.Status)

		var rejected []*notification.Notification
		for _, n := range s.inboxOf(loser.UserID) {
			if n.Type == notification.TypeRejected {
				rejected = append(rejected, n)
			}
		}
		s.Require().Len(rejected, 1)
	})

	s.Run("workload cap blocks a sixth mandate and leaves the target unchanged", func() {
		agency := s.newVerifiedAgency()
		inv := s.newInvestigator("Marie Tremblay")
		dateRequired := s.now.Add(72 * time.Hour)
		for i := 0; i < 5; i++ {
			_, decision, err := s.service.CreateMandate(s.ctx, CreateMandateInput{
				AgencyID:       agency.ID,
				Title:          "Direct surveillance",
				DateRequired:   &dateRequired,
				AssignmentType: models.AssignmentDirect,
				InvestigatorID: &inv.ID,
			})
			s.Require().NoError(err)
			s.Require().True(decision.Valid)
		}

		m2 := s.newOpenMandate(agency)
		candidature := s.apply(m2.ID, inv)

		decision, err := s.service.AcceptCandidature(s.ctx, candidature.ID, m2.ID, inv.ID)
		s.NoError(err)
		s.False(decision.Valid)
		s.Equal("investigator has reached the concurrent mandate limit", decision.Reason)

		unchanged, err := s.service.GetMandate(s.ctx, m2.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusOpen, unchanged.Status)
		s.Nil(unchanged.AssignedTo)

		still, err := s.service.GetCandidature(s.ctx, candidature.ID)
		s.Require().NoError(err)
		s.Equal(models.CandidatureInterested, still.Status)
	})

	s.Run("accepting on an already assigned mandate is rejected", func() {
		agency := s.newVerifiedAgency()
		mandate := s.newOpenMandate(agency)
		first := s.newInvestigator("Marie Tremblay")
		second := s.newInvestigator("Jean Gagnon")
		c1 := s.apply(mandate.ID, first)
		c2 := s.apply(mandate.ID, second)

		decision, err := s.service.AcceptCandidature(s.ctx, c1.ID, mandate.ID, first.ID)
		s.Require().NoError(err)
		s.Require().True(decision.Valid)

		// c2 was already rejected as a sibling, so resolving it again is an
		// invariant violation rather than a rule rejection.
		_, err = s.service.AcceptCandidature(s.ctx, c2.ID, mandate.ID, second.ID)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("mismatched candidature references are an input error", func() {
		agency := s.newVerifiedAgency()
		mandate := s.newOpenMandate(agency)
		inv := s.newInvestigator("Marie Tremblay")
		candidature := s.apply(mandate.ID, inv)

		_, err := s.service.AcceptCandidature(s.ctx, candidature.ID, mandate.ID, id.NewInvestigatorID())
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *ServiceSuite) TestRejectCandidature() {
	s.Run("reject resolves the candidature and notifies the investigator", func() {
		agency := s.newVerifiedAgency()
		mandate := s.newOpenMandate(agency)
		inv := s.newInvestigator("Marie Tremblay")
		candidature := s.apply(mandate.ID, inv)

		s.Require().NoError(s.service.RejectCandidature(s.ctx, candidature.ID))

		resolved, err := s.service.GetCandidature(s.ctx, candidature.ID)
		s.Require().NoError(err)
		s.Equal(models.CandidatureRejected, resolved.Status)

		// Mandate is untouched.
		unchanged, err := s.service.GetMandate(s.ctx, mandate.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusOpen, unchanged.Status)

		var rejected []*notification.Notification
		for _, n := range s.inboxOf(inv.UserID) {
			if n.Type == notification.TypeRejected {
				rejected = append(rejected, n)
			}
		}
		s.Require().Len(rejected, 1)
	})

	s.Run("resolving twice is an invariant violation", func() {
		agency := s.newVerifiedAgency()
		mandate := s.newOpenMandate(agency)
		inv := s.newInvestigator("Marie Tremblay")
		candidature := s.apply(mandate.ID, inv)

		s.Require().NoError(s.service.RejectCandidature(s.ctx, candidature.ID))
		err := s.service.RejectCandidature(s.ctx, candidature.ID)
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *ServiceSuite) TestUnassignInvestigator() {
	s.Run("unassign clears the assignee, reopens and notifies once", func() {
		agency := s.newVerifiedAgency()
		mandate := s.newOpenMandate(agency)
		inv := s.newInvestigator("Marie Tremblay")
		candidature := s.apply(mandate.ID, inv)
		decision, err := s.service.AcceptCandidature(s.ctx, candidature.ID, mandate.ID, inv.ID)
		s.Require().NoError(err)
		s.Require().True(decision.Valid)

		decision, err = s.service.UnassignInvestigator(s.ctx, mandate.ID)
		s.NoError(err)
		s.True(decision.Valid)

		reopened, err := s.service.GetMandate(s.ctx, mandate.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusOpen, reopened.Status)
		s.Nil(reopened.AssignedTo)

		var unassigned []*notification.Notification
		for _, n := range s.inboxOf(inv.UserID) {
			if n.Type == notification.TypeMandateUnassigned {
				unassigned = append(unassigned, n)
			}
		}
		s.Require().Len(unassigned, 1)
	})

	s.Run("unassigned mandate is rejected", func() {
		agency := s.newVerifiedAgency()
		mandate := s.newOpenMandate(agency)

		decision, err := s.service.UnassignInvestigator(s.ctx, mandate.ID)
		s.NoError(err)
		s.False(decision.Valid)
		s.Equal("mandate has no assigned investigator", decision.Reason)
	})

	s.Run("missing mandate is rejected", func() {
		decision, err := s.service.UnassignInvestigator(s.ctx, id.NewMandateID())
		s.NoError(err)
		s.False(decision.Valid)
		s.Equal("mandate not found", decision.Reason)
	})
}

func (s *ServiceSuite) TestTransitionStatus() {
	assignMandate := func() (*models.Mandate, *invmodels.Investigator) {
		agency := s.newVerifiedAgency()
		mandate := s.newOpenMandate(agency)
		inv := s.newInvestigator("Marie Tremblay")
		candidature := s.apply(mandate.ID, inv)
		decision, err := s.service.AcceptCandidature(s.ctx, candidature.ID, mandate.ID, inv.ID)
		s.Require().NoError(err)
		s.Require().True(decision.Valid)
		return mandate, inv
	}

	s.Run("in-progress completes with the investigator notified", func() {
		mandate, inv := assignMandate()

		decision, err := s.service.TransitionStatus(s.ctx, mandate.ID, models.StatusCompleted)
		s.NoError(err)
		s.True(decision.Valid)

		completed, err := s.service.GetMandate(s.ctx, mandate.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusCompleted, completed.Status)

		var updates []*notification.Notification
		for _, n := range s.inboxOf(inv.UserID) {
			if n.Type == notification.TypeUpdate {
				updates = append(updates, n)
			}
		}
		s.Require().Len(updates, 1)
		s.Contains(updates[0].Message, "completed")
	})

	s.Run("reopening an in-progress mandate with an assignee is rejected", func() {
		mandate, _ := assignMandate()

		decision, err := s.service.TransitionStatus(s.ctx, mandate.ID, models.StatusOpen)
		s.NoError(err)
		s.False(decision.Valid)
		s.Equal("clear the assigned investigator before reopening the mandate", decision.Reason)
	})

	s.Run("illegal transition is rejected", func() {
		agency := s.newVerifiedAgency()
		mandate := s.newOpenMandate(agency)

		decision, err := s.service.TransitionStatus(s.ctx, mandate.ID, models.StatusCompleted)
		s.NoError(err)
		s.False(decision.Valid)
	})

	s.Run("unknown status is an input error", func() {
		agency := s.newVerifiedAgency()
		mandate := s.newOpenMandate(agency)

		_, err := s.service.TransitionStatus(s.ctx, mandate.ID, models.Status("archived"))
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *ServiceSuite) TestRateMandate() {
	completeMandate := func() *models.Mandate {
		agency := s.newVerifiedAgency()
		mandate := s.newOpenMandate(agency)
		inv := s.newInvestigator("Marie Tremblay")
		candidature := s.apply(mandate.ID, inv)
		decision, err := s.service.AcceptCandidature(s.ctx, candidature.ID, mandate.ID, inv.ID)
		s.Require().NoError(err)
		s.Require().True(decision.Valid)
		decision, err = s.service.TransitionStatus(s.ctx, mandate.ID, models.StatusCompleted)
		s.Require().NoError(err)
		s.Require().True(decision.Valid)
		return mandate
	}

	s.Run("completed mandate can be rated once", func() {
		mandate := completeMandate()

		rating, err := s.service.RateMandate(s.ctx, mandate.ID, 4, "Thorough report")
		s.NoError(err)
		s.Equal(4, rating.Score)

		found, err := s.service.GetRating(s.ctx, mandate.ID)
		s.Require().NoError(err)
		s.Equal(4, found.Score)

		_, err = s.service.RateMandate(s.ctx, mandate.ID, 5, "Again")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("open mandate cannot be rated", func() {
		agency := s.newVerifiedAgency()
		mandate := s.newOpenMandate(agency)

		_, err := s.service.RateMandate(s.ctx, mandate.ID, 5, "")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("score out of range is rejected", func() {
		mandate := completeMandate()
		_, err := s.service.RateMandate(s.ctx, mandate.ID, 6, "")
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}
