package events

import (
	"testing"

	"fintrack/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpenseCreatedCarriesSnapshot(t *testing.T) {
	evt := ExpenseCreated(core.Expense{
		ID:          42,
		Amount:      decimal.RequireFromString("19.999"),
		Category:    "Food",
		Description: "lunch",
		Date:        core.NewDate(2024, 3, 15),
	})

	assert.NotEmpty(t, evt.EventID)
	assert.Equal(t, "expense:42", evt.Key())
	require.NotNil(t, evt.Entry)
	assert.Equal(t, "19.999", evt.Entry.Amount)
	assert.Equal(t, "2024-03-15", evt.Entry.Date)

	data, err := evt.ToJSON()
	require.NoError(t, err)
	decoded, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, evt.EventID, decoded.EventID)
	assert.Equal(t, *evt.Entry, *decoded.Entry)
}

func TestFromJSONRejectsMalformedEvents(t *testing.T) {
	cases := map[string]string{
		"not json":        `{`,
		"unknown kind":    `{"kind":"transfer","action":"created","entry_id":1,"entry":{}}`,
		"created no body": `{"kind":"expense","action":"created","entry_id":1}`,
		"bad action":      `{"kind":"income","action":"updated","entry_id":1}`,
		"missing id":      `{"kind":"income","action":"deleted"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromJSON([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestDeletedEventHasNoEntry(t *testing.T) {
	evt := IncomeDeleted(7)
	assert.Nil(t, evt.Entry)
	assert.NoError(t, evt.Validate())
}
