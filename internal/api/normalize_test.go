package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ismaelvargas20/motochat/internal/models"
)

func decodeRaw(t *testing.T, payload string) raw {
	t.Helper()
	var r raw
	require.NoError(t, json.Unmarshal([]byte(payload), &r))
	return r
}

func TestNormalizeMessageAliases(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    models.Message
	}{
		{
			name:    "mensaje shape",
			payload: `{"_id":"m1","chatId":"c1","remitente":"7","cuerpo":"hola","fecha":"2026-01-02T10:00:00Z"}`,
			want: models.Message{
				ID:             "m1",
				ConversationID: "c1",
				SenderID:       "7",
				Body:           "hola",
				Timestamp:      time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
				Moderation:     models.ModerationStateActive,
			},
		},
		{
			name:    "usuario shape with numeric ids",
			payload: `{"id":12,"conversacionId":9,"emisor":3,"texto":"ok","timestamp":1767348000000}`,
			want: models.Message{
				ID:             "12",
				ConversationID: "9",
				SenderID:       "3",
				Body:           "ok",
				Timestamp:      time.UnixMilli(1767348000000).UTC(),
				Moderation:     models.ModerationStateActive,
			},
		},
		{
			name:    "deleted flag variants",
			payload: `{"id":"m2","contenido":"x","eliminado":"si"}`,
			want: models.Message{
				ID:         "m2",
				Body:       "x",
				Moderation: models.ModerationStateDeleted,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeMessage(decodeRaw(t, tt.payload))
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeMessageReadByShapes(t *testing.T) {
	plain := NormalizeMessage(decodeRaw(t, `{"id":"m1","leidoPor":["1","2"]}`))
	require.Equal(t, []string{"1", "2"}, plain.ReadBy)

	// Backend sometimes expands the acknowledgement set into objects.
	expanded := NormalizeMessage(decodeRaw(t, `{"id":"m2","lecturas":[{"clienteId":"4"},{"usuarioId":5}]}`))
	require.Equal(t, []string{"4", "5"}, expanded.ReadBy)
}

func TestNormalizeConversation(t *testing.T) {
	payload := `{
		"chatId": "c9",
		"titulo": "Honda CB500F 2019",
		"clienteId": 4,
		"propietarioId": 8,
		"motoId": "l77",
		"tipo": "moto",
		"noLeidos": 3,
		"ultima": {"id":"m5","remitente":"8","cuerpo":"sigue disponible","fecha":"2026-02-01T08:30:00Z","leidoPor":["8"]}
	}`
	conv := NormalizeConversation(decodeRaw(t, payload))

	require.Equal(t, "c9", conv.ID)
	require.Equal(t, "Honda CB500F 2019", conv.Participants.Label)
	require.Equal(t, "4", conv.Participants.BuyerID)
	require.Equal(t, "8", conv.Participants.OwnerID)
	require.Equal(t, "l77", conv.RelatedListingID)
	require.Equal(t, models.ListingTypeMoto, conv.RelatedListingType)
	require.Equal(t, 3, conv.UnreadCount)
	require.Equal(t, "sigue disponible", conv.Last.Body)
	require.Equal(t, "8", conv.Last.SenderID)
	require.Equal(t, []string{"8"}, conv.Last.ReadBy)
	// Title chain belongs to the store; normalization leaves it alone unless
	// the server sent an explicit display field.
	require.Empty(t, conv.DisplayTitle)
}

func TestNormalizeConversationExplicitDisplayName(t *testing.T) {
	conv := NormalizeConversation(decodeRaw(t, `{"id":"c1","displayName":"María R."}`))
	require.Equal(t, "María R.", conv.DisplayTitle)
}

func TestNormalizeNotification(t *testing.T) {
	n := NormalizeNotification(decodeRaw(t, `{"_id":"n1","tipo":"mensaje","enlace":"c9","leida":false,"remitenteNombre":"Pedro"}`))
	require.Equal(t, "n1", n.ID)
	require.Equal(t, models.NotificationTypeChat, n.Type)
	require.Equal(t, "c9", n.Link)
	require.False(t, n.Read)
	require.Equal(t, "Pedro", n.SenderLabel)

	generic := NormalizeNotification(decodeRaw(t, `{"id":"n2","tipo":"otra"}`))
	require.Equal(t, models.NotificationTypeGeneric, generic.Type)
}

func TestNormalizeReportStates(t *testing.T) {
	tests := []struct {
		wire string
		want models.ReportState
	}{
		{"abierto", models.ReportStateOpen},
		{"pendiente", models.ReportStateOpen},
		{"en_revision", models.ReportStateInReview},
		{"resuelto", models.ReportStateResolved},
		{"rechazado", models.ReportStateRejected},
		{"RESOLVED", models.ReportStateResolved},
		{"", models.ReportStateOpen},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, normalizeReportState(tt.wire), "wire state %q", tt.wire)
	}
}

func TestNormalizeReport(t *testing.T) {
	payload := `{
		"reporteId":"r3","chatId":"c9","mensajeId":"m5","reportadorId":"4",
		"motivo":"insultos","estado":"en_revision","clienteEliminado":true,
		"comentario_admin":"revisando"
	}`
	rep := NormalizeReport(decodeRaw(t, payload))
	require.Equal(t, "r3", rep.ID)
	require.Equal(t, "c9", rep.ConversationID)
	require.Equal(t, "m5", rep.ReportedMessageID)
	require.Equal(t, "4", rep.ReporterID)
	require.Equal(t, "insultos", rep.Reason)
	require.Equal(t, models.ReportStateInReview, rep.State)
	require.True(t, rep.ClientDeleted)
	require.False(t, rep.MessageDeleted)
	require.Equal(t, "revisando", rep.AdminComment)
}

func TestNormalizeListingAndProfile(t *testing.T) {
	l := NormalizeListing(decodeRaw(t, `{"motoId":"l77","propietarioId":8,"titulo":"CB500F"}`))
	require.Equal(t, Listing{ID: "l77", OwnerID: "8", Title: "CB500F"}, l)

	p := NormalizeProfile(decodeRaw(t, `{"usuarioId":8,"nombreCompleto":"Laura Gómez"}`))
	require.Equal(t, Profile{ID: "8", Name: "Laura Gómez"}, p)
}
