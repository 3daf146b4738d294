package report_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/controlenotas/notas-api/internal/domain/records"
	"github.com/controlenotas/notas-api/internal/domain/report"
)

func TestSendWithoutAPIKeySimulates(t *testing.T) {
	svc := report.NewService("", "notas@example.com", nil)

	outcome := svc.Send(context.Background(), "dono@example.com", &records.Snapshot{})

	assert.Equal(t, report.StatusSimulated, outcome.Status)
	assert.Equal(t, "dono@example.com", outcome.SentTo)
	assert.NotEmpty(t, outcome.Note)
}
