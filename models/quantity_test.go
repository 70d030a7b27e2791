package models

import (
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantityDecodesLeniently(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"number", `42`, "42"},
		{"fraction", `2.5`, "2.5"},
		{"numeric string", `"150"`, "150"},
		{"thousands separator", `"1,20,000"`, "120000"},
		{"null", `null`, "0"},
		{"empty string", `""`, "0"},
		{"garbage", `"n/a"`, "0"},
		{"negative clamps to zero", `-7`, "0"},
		{"negative string clamps to zero", `"-7"`, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q Quantity
			require.NoError(t, json.Unmarshal([]byte(tt.input), &q))
			assert.Equal(t, tt.want, q.String())
		})
	}
}

func TestAmountKeepsSign(t *testing.T) {
	var a Amount
	require.NoError(t, json.Unmarshal([]byte(`"-12.5"`), &a))
	assert.Equal(t, "-12.5", a.String())

	require.NoError(t, json.Unmarshal([]byte(`"abc"`), &a))
	assert.True(t, a.IsZero())
}

func TestQuantityMarshalsAsBareNumber(t *testing.T) {
	data, err := json.Marshal(ShareCount{Offered: NewQuantity(100), Subscribed: NewQuantity(250.5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"offered":100,"subscribed":250.5}`, string(data))
}

func TestRecordDecodesMixedFigures(t *testing.T) {
	raw := `{
		"_id": "abc123",
		"companyName": "Acme Ltd",
		"category": "SME",
		"priceRange": {"min": "95", "max": 100},
		"lotSize": "1200",
		"gmp": [{"value": 25, "date": "2024-06-03"}],
		"subscriptionDetails": {
			"sharesOffered": {"qib": "10", "nii": 5, "retail": null},
			"showShareholderCategory": true
		}
	}`

	var record IPORecord
	require.NoError(t, json.Unmarshal([]byte(raw), &record))

	assert.Equal(t, "abc123", record.Identifier())
	assert.Equal(t, "100", record.PriceRange.Max.String())
	assert.Equal(t, "1200", record.LotSize.String())
	assert.Len(t, record.GMP, 1)
	assert.Equal(t, "10", record.SubscriptionDetails.SharesOffered.QIB.String())
	assert.True(t, record.SubscriptionDetails.SharesOffered.Retail.IsZero())
	assert.True(t, record.SubscriptionDetails.Preferences().IncludeShareholder)
	assert.Equal(t, SharesUnitLakhs, record.SubscriptionDetails.Preferences().SharesUnit)
}

func TestIdentifierFallsBackToAltID(t *testing.T) {
	assert.Equal(t, "plain", IPORecord{AltID: "plain"}.Identifier())
	assert.False(t, IPORecord{AllotmentLink: "   "}.HasAllotmentLink())
	assert.True(t, IPORecord{AllotmentLink: "https://registrar.example/ipo"}.HasAllotmentLink())
}

func TestParseLifecyclePhase(t *testing.T) {
	phase, ok := ParseLifecyclePhase(" Open ")
	assert.True(t, ok)
	assert.Equal(t, PhaseOpen, phase)

	_, ok = ParseLifecyclePhase("all")
	assert.False(t, ok)

	_, ok = ParseLifecyclePhase("allotted")
	assert.False(t, ok)
}

func TestNormalizeSharesUnit(t *testing.T) {
	assert.Equal(t, SharesUnitCrores, NormalizeSharesUnit("Cr"))
	assert.Equal(t, SharesUnitThousands, NormalizeSharesUnit("thousands"))
	assert.Equal(t, SharesUnitUnits, NormalizeSharesUnit("Units"))
	assert.Equal(t, SharesUnitLakhs, NormalizeSharesUnit(""))
	assert.Equal(t, SharesUnitLakhs, NormalizeSharesUnit("bushels"))
}

func TestQuantityNeverNegativeProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("decoded quantities are never negative", prop.ForAll(
		func(v int64) bool {
			var q Quantity
			data, _ := json.Marshal(v)
			if err := json.Unmarshal(data, &q); err != nil {
				return false
			}
			return !q.IsNegative()
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}

func TestMaskPAN(t *testing.T) {
	assert.Equal(t, "ABCDE****F", MaskPAN("ABCDE1234F"))
	assert.Equal(t, "***", MaskPAN("ABC"))
	assert.Empty(t, MaskPAN(""))
}

func TestAttemptJSONMasksPAN(t *testing.T) {
	data, err := json.Marshal(AllotmentAttempt{IPOID: "ipo-1", Mode: ModeInternal, PANCard: "ABCDE1234F"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "ABCDE1234F")
	assert.Contains(t, string(data), `"panCard":"ABCDE****F"`)
	assert.Contains(t, string(data), `"ipoId":"ipo-1"`)

	data, err = json.Marshal(AllotmentAttempt{IPOID: "ipo-2", Mode: ModeExternal})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "panCard")
}

func TestDerivedFiguresMarshalAsNumbers(t *testing.T) {
	agg := ShareAggregation{
		PerCategory: CategoryMultipliers{CategoryQIB: NewAmount(5), CategoryRetail: NewAmount(0.5)},
		Total:       NewAmount(2),
	}
	data, err := json.Marshal(agg)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"perCategory":{"qib":5,"retail":0.5}`)
	assert.Contains(t, string(data), `"total":2`)
}
