package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eduflow/certflow/internal/domain"
	"github.com/eduflow/certflow/internal/llm"
)

func TestCalculateHoursFixed(t *testing.T) {
	category := domain.ActivityCategory{
		CalculationType: domain.CalculationFixedPerSemester,
		HoursAwarded:    int64p(30),
		MaxTotalHours:   60,
	}
	require.Equal(t, int64(30), calculateHours(category, nil, llm.Fields{}))
}

func TestCalculateHoursRatioHoursClamped(t *testing.T) {
	// numeric_hours=200, output_hours=1, input_quantity=1, max_total_hours=60
	// -> floor(200*1/1) = 200, clamped down to 60.
	category := domain.ActivityCategory{
		CalculationType: domain.CalculationRatioHours,
		OutputHours:     int64p(1),
		InputQuantity:   int64p(1),
		MaxTotalHours:   60,
	}
	require.Equal(t, int64(60), calculateHours(category, int64p(200), llm.Fields{}))
}

func TestCalculateHoursRatioHoursNoNumericHours(t *testing.T) {
	category := domain.ActivityCategory{
		CalculationType: domain.CalculationRatioHours,
		OutputHours:     int64p(1),
		InputQuantity:   int64p(1),
		MaxTotalHours:   60,
	}
	require.Equal(t, int64(0), calculateHours(category, nil, llm.Fields{}))
}

func TestCalculateHoursRatioDaysFoundInText(t *testing.T) {
	category := domain.ActivityCategory{
		CalculationType: domain.CalculationRatioDays,
		OutputHours:     int64p(8),
		MaxTotalHours:   40,
	}
	fields := llm.Fields{Evento: strp("Semana academica, 3 dias de evento")}
	require.Equal(t, int64(24), calculateHours(category, nil, fields))
}

func TestCalculateHoursRatioDaysFallsBackToOutputHours(t *testing.T) {
	category := domain.ActivityCategory{
		CalculationType: domain.CalculationRatioDays,
		OutputHours:     int64p(8),
		MaxTotalHours:   40,
	}
	require.Equal(t, int64(8), calculateHours(category, nil, llm.Fields{}))
}

func TestCalculateHoursRatioPages(t *testing.T) {
	category := domain.ActivityCategory{
		CalculationType: domain.CalculationRatioPages,
		OutputHours:     int64p(1),
		InputQuantity:   int64p(5),
		MaxTotalHours:   30,
	}
	fields := llm.Fields{Evento: strp("Relatorio tecnico com 12 páginas")}
	require.Equal(t, int64(2), calculateHours(category, nil, fields))
}

func TestCalculateHoursRatioPagesFallsBackToOutputHours(t *testing.T) {
	category := domain.ActivityCategory{
		CalculationType: domain.CalculationRatioPages,
		OutputHours:     int64p(1),
		InputQuantity:   int64p(5),
		MaxTotalHours:   30,
	}
	require.Equal(t, int64(1), calculateHours(category, nil, llm.Fields{}))
}

func TestCalculateHoursNeverNegative(t *testing.T) {
	category := domain.ActivityCategory{
		CalculationType: domain.CalculationFixedPerActivity,
		HoursAwarded:    int64p(-5),
		MaxTotalHours:   20,
	}
	require.Equal(t, int64(0), calculateHours(category, nil, llm.Fields{}))
}

func TestDaysInTextSearchOrder(t *testing.T) {
	fields := llm.Fields{
		Evento:       strp("Curso sem dias mencionados"),
		Data:         strp("Realizado em 5 dias corridos"),
		CargaHoraria: strp("2 dias"),
	}
	days, ok := daysInText(fields)
	require.True(t, ok)
	require.Equal(t, int64(5), days)
}

func TestPagesInTextNoMatch(t *testing.T) {
	_, ok := pagesInText(llm.Fields{Evento: strp("nenhuma mencao")})
	require.False(t, ok)
}
