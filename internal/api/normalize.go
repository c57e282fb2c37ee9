package api

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/ismaelvargas20/motochat/internal/models"
)

// The backend emits the same concept under several field names depending on
// which service produced the payload (mensaje, cliente, usuario shapes). Each
// entity has one normalization function driven by a declared alias table, so
// coverage is auditable in one place instead of scattered fallbacks.

// Alias tables, in priority order.
var (
	conversationAliases = map[string][]string{
		"id":           {"id", "_id", "chatId", "idChat"},
		"label":        {"titulo", "title", "nombre"},
		"buyerID":      {"clienteId", "compradorId", "idCliente"},
		"ownerID":      {"propietarioId", "vendedorId", "idPropietario"},
		"buyerName":    {"clienteNombre", "nombreCliente", "comprador"},
		"ownerName":    {"propietarioNombre", "nombrePropietario", "vendedor"},
		"listingID":    {"motoId", "piezaId", "anuncioId", "idAnuncio"},
		"listingType":  {"tipo", "tipoAnuncio"},
		"unread":       {"unreadCount", "noLeidos", "sinLeer"},
		"last":         {"ultima", "ultimoMensaje", "lastMessage"},
		"displayName":  {"displayName", "nombreMostrar"},
		"participants": {"participantes", "participants"},
	}

	messageAliases = map[string][]string{
		"id":        {"id", "_id", "mensajeId"},
		"chatID":    {"chatId", "idChat", "conversacionId"},
		"senderID":  {"remitente", "remitenteId", "emisor", "senderId"},
		"body":      {"cuerpo", "texto", "contenido", "body"},
		"timestamp": {"fecha", "timestamp", "creadoEn", "createdAt"},
		"readBy":    {"leidoPor", "lecturas", "readBy"},
		"deleted":   {"eliminado", "borrado", "deleted"},
	}

	notificationAliases = map[string][]string{
		"id":          {"id", "_id", "notificacionId"},
		"type":        {"tipo", "type"},
		"link":        {"enlace", "link", "url"},
		"read":        {"leida", "leido", "read"},
		"senderLabel": {"remitenteNombre", "nombreRemitente", "emisorNombre"},
		"timestamp":   {"fecha", "creadoEn", "createdAt"},
	}

	reportAliases = map[string][]string{
		"id":             {"id", "_id", "reporteId"},
		"chatID":         {"chatId", "idChat"},
		"messageID":      {"mensajeId", "idMensaje"},
		"reporterID":     {"reportadorId", "clienteId", "idReportador"},
		"reason":         {"motivo", "razon", "reason"},
		"state":          {"estado", "state"},
		"clientDeleted":  {"clienteEliminado", "cuentaEliminada"},
		"messageDeleted": {"mensajeEliminado"},
		"adminComment":   {"comentario_admin", "comentarioAdmin"},
		"timestamp":      {"fecha", "creadoEn", "createdAt"},
	}

	profileAliases = map[string][]string{
		"id":   {"id", "_id", "clienteId", "usuarioId"},
		"name": {"nombre", "nombreCompleto", "name", "usuario", "alias"},
	}

	listingAliases = map[string][]string{
		"id":      {"id", "_id", "motoId", "piezaId"},
		"ownerID": {"propietarioId", "clienteId", "vendedorId", "idPropietario"},
		"title":   {"titulo", "nombre", "modelo"},
	}
)

// raw is a decoded JSON object before normalization.
type raw map[string]json.RawMessage

func firstRaw(r raw, aliases []string) (json.RawMessage, bool) {
	for _, key := range aliases {
		if v, ok := r[key]; ok && len(v) > 0 && string(v) != "null" {
			return v, true
		}
	}
	return nil, false
}

// firstString reads the first present alias as a string. Numeric ids are
// accepted and rendered in decimal, since the backend is inconsistent about
// quoting them.
func firstString(r raw, aliases []string) string {
	v, ok := firstRaw(r, aliases)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n float64
	if err := json.Unmarshal(v, &n); err == nil {
		return strconv.FormatInt(int64(n), 10)
	}
	return ""
}

func firstInt(r raw, aliases []string) int {
	v, ok := firstRaw(r, aliases)
	if !ok {
		return 0
	}
	var n int
	if err := json.Unmarshal(v, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if parsed, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return parsed
		}
	}
	return 0
}

func firstBool(r raw, aliases []string) bool {
	v, ok := firstRaw(r, aliases)
	if !ok {
		return false
	}
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return b
	}
	var n float64
	if err := json.Unmarshal(v, &n); err == nil {
		return n != 0
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		s = strings.ToLower(strings.TrimSpace(s))
		return s == "true" || s == "1" || s == "si" || s == "sí"
	}
	return false
}

// firstTime accepts RFC3339 strings and epoch milliseconds.
func firstTime(r raw, aliases []string) time.Time {
	v, ok := firstRaw(r, aliases)
	if !ok {
		return time.Time{}
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
		if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
			return t
		}
		return time.Time{}
	}
	var ms float64
	if err := json.Unmarshal(v, &ms); err == nil {
		return time.UnixMilli(int64(ms)).UTC()
	}
	return time.Time{}
}

// firstStringSlice reads the first present alias as a list of ids. The feed
// sometimes delivers objects rather than bare ids; their id field is used.
func firstStringSlice(r raw, aliases []string) []string {
	v, ok := firstRaw(r, aliases)
	if !ok {
		return nil
	}
	var ss []string
	if err := json.Unmarshal(v, &ss); err == nil {
		return ss
	}
	var objs []raw
	if err := json.Unmarshal(v, &objs); err == nil {
		out := make([]string, 0, len(objs))
		for _, o := range objs {
			if id := firstString(o, profileAliases["id"]); id != "" {
				out = append(out, id)
			}
		}
		return out
	}
	return nil
}

func firstObject(r raw, aliases []string) (raw, bool) {
	v, ok := firstRaw(r, aliases)
	if !ok {
		return nil, false
	}
	var obj raw
	if err := json.Unmarshal(v, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// NormalizeConversation converts a raw conversation summary into the
// canonical record. The display title is left empty; the store owns the
// title fallback chain.
func NormalizeConversation(r raw) models.Conversation {
	conv := models.Conversation{
		ID: firstString(r, conversationAliases["id"]),
		Participants: models.ParticipantsHint{
			BuyerID:   firstString(r, conversationAliases["buyerID"]),
			OwnerID:   firstString(r, conversationAliases["ownerID"]),
			BuyerName: firstString(r, conversationAliases["buyerName"]),
			OwnerName: firstString(r, conversationAliases["ownerName"]),
			Label:     firstString(r, conversationAliases["label"]),
		},
		RelatedListingID: firstString(r, conversationAliases["listingID"]),
		UnreadCount:      firstInt(r, conversationAliases["unread"]),
	}

	switch strings.ToLower(firstString(r, conversationAliases["listingType"])) {
	case "moto", "motos":
		conv.RelatedListingType = models.ListingTypeMoto
	case "pieza", "piezas", "part", "parte":
		conv.RelatedListingType = models.ListingTypePart
	}

	// Some payloads embed the counterpart profile directly.
	if profile, ok := firstObject(r, conversationAliases["participants"]); ok {
		if name := firstString(profile, profileAliases["name"]); name != "" && conv.Participants.OwnerName == "" {
			conv.Participants.OwnerName = name
		}
	}
	if name := firstString(r, conversationAliases["displayName"]); name != "" {
		conv.DisplayTitle = name
	}

	if last, ok := firstObject(r, conversationAliases["last"]); ok {
		msg := NormalizeMessage(last)
		conv.Last = models.LastMessage{
			Body:      msg.Body,
			SenderID:  msg.SenderID,
			Timestamp: msg.Timestamp,
			ReadBy:    msg.ReadBy,
		}
	}
	return conv
}

// NormalizeMessage converts a raw message into the canonical record.
func NormalizeMessage(r raw) models.Message {
	msg := models.Message{
		ID:             firstString(r, messageAliases["id"]),
		ConversationID: firstString(r, messageAliases["chatID"]),
		SenderID:       firstString(r, messageAliases["senderID"]),
		Body:           firstString(r, messageAliases["body"]),
		Timestamp:      firstTime(r, messageAliases["timestamp"]),
		ReadBy:         firstStringSlice(r, messageAliases["readBy"]),
		Moderation:     models.ModerationStateActive,
	}
	if firstBool(r, messageAliases["deleted"]) {
		msg.Moderation = models.ModerationStateDeleted
	}
	return msg
}

// NormalizeNotification converts a raw feed entry into the canonical record.
func NormalizeNotification(r raw) models.Notification {
	n := models.Notification{
		ID:          firstString(r, notificationAliases["id"]),
		Link:        firstString(r, notificationAliases["link"]),
		Read:        firstBool(r, notificationAliases["read"]),
		SenderLabel: firstString(r, notificationAliases["senderLabel"]),
		CreatedAt:   firstTime(r, notificationAliases["timestamp"]),
	}
	switch strings.ToLower(firstString(r, notificationAliases["type"])) {
	case "chat", "mensaje":
		n.Type = models.NotificationTypeChat
	case "comment", "comentario":
		n.Type = models.NotificationTypeComment
	default:
		n.Type = models.NotificationTypeGeneric
	}
	return n
}

// NormalizeReport converts a raw report into the canonical record.
func NormalizeReport(r raw) models.Report {
	rep := models.Report{
		ID:                firstString(r, reportAliases["id"]),
		ConversationID:    firstString(r, reportAliases["chatID"]),
		ReportedMessageID: firstString(r, reportAliases["messageID"]),
		ReporterID:        firstString(r, reportAliases["reporterID"]),
		Reason:            firstString(r, reportAliases["reason"]),
		ClientDeleted:     firstBool(r, reportAliases["clientDeleted"]),
		MessageDeleted:    firstBool(r, reportAliases["messageDeleted"]),
		AdminComment:      firstString(r, reportAliases["adminComment"]),
		CreatedAt:         firstTime(r, reportAliases["timestamp"]),
	}
	rep.State = normalizeReportState(firstString(r, reportAliases["state"]))
	return rep
}

func normalizeReportState(s string) models.ReportState {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "abierto", "pendiente", "open":
		return models.ReportStateOpen
	case "en_revision", "revision", "in_review":
		return models.ReportStateInReview
	case "resuelto", "resolved":
		return models.ReportStateResolved
	case "rechazado", "rejected":
		return models.ReportStateRejected
	default:
		return models.ReportStateOpen
	}
}

// Profile is the canonical client profile record.
type Profile struct {
	ID   string
	Name string
}

// NormalizeProfile converts a raw client/usuario payload.
func NormalizeProfile(r raw) Profile {
	return Profile{
		ID:   firstString(r, profileAliases["id"]),
		Name: firstString(r, profileAliases["name"]),
	}
}

// Listing is the canonical listing record, reduced to what the resolver needs.
type Listing struct {
	ID      string
	OwnerID string
	Title   string
}

// NormalizeListing converts a raw moto/pieza payload.
func NormalizeListing(r raw) Listing {
	return Listing{
		ID:      firstString(r, listingAliases["id"]),
		OwnerID: firstString(r, listingAliases["ownerID"]),
		Title:   firstString(r, listingAliases["title"]),
	}
}
