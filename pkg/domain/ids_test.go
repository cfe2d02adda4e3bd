package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "mandat/pkg/domain-errors"
)

// =============================================================================
// Typed ID Test Suite
// =============================================================================

type IDSuite struct {
	suite.Suite
}

func TestIDSuite(t *testing.T) {
	suite.Run(t, new(IDSuite))
}

func (s *IDSuite) TestParse() {
	s.Run("round trips through String", func() {
		mandateID := NewMandateID()
		parsed, err := ParseMandateID(mandateID.String())
		s.NoError(err)
		s.Equal(mandateID, parsed)
	})

	s.Run("rejects empty, malformed and nil inputs", func() {
		for _, raw := range []string{"", "not-a-uuid", "00000000-0000-0000-0000-000000000000"} {
			_, err := ParseUserID(raw)
			s.Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
		}
	})
}

func (s *IDSuite) TestJSON() {
	mandateID := NewMandateID()

	raw, err := json.Marshal(mandateID)
	s.Require().NoError(err)
	s.JSONEq(`"`+mandateID.String()+`"`, string(raw))

	var decoded MandateID
	s.Require().NoError(json.Unmarshal(raw, &decoded))
	s.Equal(mandateID, decoded)
}

func (s *IDSuite) TestIsNil() {
	s.True(UserID{}.IsNil())
	s.False(NewUserID().IsNil())
}
