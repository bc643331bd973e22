package domain_test

import (
	"testing"
	"time"

	"github.com/mtlprog/slaola/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicy_Calendar(t *testing.T) {
	p := &domain.Policy{
		BusinessHoursStart: "09:00",
		BusinessHoursEnd:   "18:00",
		BusinessDays:       "1,2,3,4,5",
	}
	cal, err := p.Calendar()
	require.NoError(t, err)
	require.NotNil(t, cal)
	assert.Equal(t, 540, cal.WindowMinutes())

	// Any blank field means no calendar.
	p.BusinessDays = "  "
	cal, err = p.Calendar()
	require.NoError(t, err)
	assert.Nil(t, cal)
	assert.True(t, p.HasCalendarFields())

	p.BusinessDays = "1,2"
	p.BusinessHoursEnd = "08:00"
	_, err = p.Calendar()
	assert.ErrorIs(t, err, domain.ErrInvalidCalendar)
}

func TestPolicy_Hours(t *testing.T) {
	p := &domain.Policy{
		SLAHours: decimal.NewNullDecimal(decimal.RequireFromString("4.5")),
	}

	h, ok := p.Hours(domain.LimitKindSLA)
	assert.True(t, ok)
	assert.Equal(t, 4.5, h)

	_, ok = p.Hours(domain.LimitKindOLA)
	assert.False(t, ok)
	assert.True(t, p.HasDelays())

	assert.False(t, (&domain.Policy{}).HasDelays())
}

func TestIssue_NeedsLimits(t *testing.T) {
	project := "proj-1"
	empty := ""
	now := time.Now()

	assert.True(t, (&domain.Issue{ProjectID: &project}).NeedsLimits())
	assert.False(t, (&domain.Issue{}).NeedsLimits())
	assert.False(t, (&domain.Issue{ProjectID: &empty}).NeedsLimits())
	assert.False(t, (&domain.Issue{ProjectID: &project, OLALimit: &now}).NeedsLimits())
}

func TestIssue_IsBreached(t *testing.T) {
	now := time.Date(2024, time.March, 4, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	issue := &domain.Issue{SLALimit: &past, OLALimit: &future}
	assert.True(t, issue.IsBreached(domain.LimitKindSLA, now))
	assert.False(t, issue.IsBreached(domain.LimitKindOLA, now))
	assert.False(t, (&domain.Issue{}).IsBreached(domain.LimitKindSLA, now))
}

func TestResolveProduct(t *testing.T) {
	fields := map[string]string{domain.ProductFieldName: "  Billing  ", "Other": "x"}

	assert.Equal(t, "Billing", domain.ResolveProduct(fields, domain.ProductFieldName))
	assert.Equal(t, "", domain.ResolveProduct(fields, "Missing"))
	assert.Equal(t, "", domain.ResolveProduct(nil, domain.ProductFieldName))
}
