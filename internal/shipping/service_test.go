package shipping

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"bellgas/internal/shipping/metrics"
)

type ServiceSuite struct {
	suite.Suite
	metrics *metrics.Metrics
	service *Service
}

func (s *ServiceSuite) SetupTest() {
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = NewService(WithMetrics(s.metrics))
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) TestQuoteCountsByZone() {
	ctx := context.Background()

	_, err := s.service.Quote(ctx, "2000", dec("1"))
	s.Require().NoError(err)
	_, err = s.service.Quote(ctx, "2000", dec("2"))
	s.Require().NoError(err)
	_, err = s.service.Quote(ctx, "9999", dec("2"))
	s.Require().NoError(err)

	s.Equal(2.0, testutil.ToFloat64(s.metrics.QuotesByZone.WithLabelValues("metro")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.QuotesByZone.WithLabelValues("remote")))
	s.Equal(0.0, testutil.ToFloat64(s.metrics.InvalidPostcodes))
}

func (s *ServiceSuite) TestQuoteRejectsInvalidPostcode() {
	quote, err := s.service.Quote(context.Background(), "ABCD", dec("1"))
	s.Require().ErrorIs(err, ErrInvalidPostcode)
	s.Nil(quote)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.InvalidPostcodes))
}

func TestServiceWithoutMetrics(t *testing.T) {
	svc := NewService()
	q, err := svc.Quote(context.Background(), "2300", dec("2"))
	require.NoError(t, err)
	assert.True(t, dec("32").Equal(q.TotalCost))
}
