package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/shipra-ai/shipra-backend/internal/models"
	"github.com/shipra-ai/shipra-backend/internal/storage"
)

// MessageSender delivers outbound messages to the customer
type MessageSender interface {
	SendWhatsAppMessage(to, message string) error
}

// OrderExtractor turns raw customer content into order details
type OrderExtractor interface {
	ExtractFromText(ctx context.Context, text string) (map[string]any, error)
	ExtractFromImage(ctx context.Context, imageURL string) (map[string]any, error)
	ExtractFromAudio(ctx context.Context, audioURL, contentType string) (map[string]any, error)
	ExtractFromPDF(ctx context.Context, pdfURL string) (map[string]any, error)
}

// OrderCreator submits extracted orders to the ERP
type OrderCreator interface {
	CreateSalesOrder(ctx context.Context, orderDetails map[string]any) (map[string]any, error)
}

// IncomingMessage is one inbound unit of content from the webhook
type IncomingMessage struct {
	From             string
	Body             string
	NumMedia         int
	MediaURL         string
	MediaContentType string
}

// WhatsAppService processes incoming WhatsApp messages: it records the
// conversation turn, runs order extraction, submits the order, and replies
// to the customer.
type WhatsAppService struct {
	sessions  *SessionStore
	sender    MessageSender
	extractor OrderExtractor
	erp       OrderCreator
	orders    storage.OrderStore
}

// NewWhatsAppService creates a new WhatsApp service
func NewWhatsAppService(sessions *SessionStore, sender MessageSender, extractor OrderExtractor, erp OrderCreator, orders storage.OrderStore) *WhatsAppService {
	return &WhatsAppService{
		sessions:  sessions,
		sender:    sender,
		extractor: extractor,
		erp:       erp,
		orders:    orders,
	}
}

// ProcessIncoming handles a single webhook delivery end to end
func (w *WhatsAppService) ProcessIncoming(ctx context.Context, msg IncomingMessage) error {
	phone := strings.TrimPrefix(msg.From, "whatsapp:")
	text := strings.TrimSpace(msg.Body)

	var imageURL, audioURL, pdfURL string
	if msg.NumMedia > 0 && msg.MediaContentType != "" {
		switch {
		case strings.HasPrefix(msg.MediaContentType, "image/"):
			imageURL = msg.MediaURL
		case strings.HasPrefix(msg.MediaContentType, "audio/"):
			audioURL = msg.MediaURL
		case msg.MediaContentType == "application/pdf":
			pdfURL = msg.MediaURL
		}
	}

	switch {
	case text != "":
		log.Printf("📱 Processing text message from %s", phone)
		w.sessions.AddMessage(phone, text, models.MessageTypeText, models.DirectionInbound, nil)

		details, err := w.extractor.ExtractFromText(ctx, text)
		if err != nil {
			w.replyError(phone, "⚠️ There was an error processing your order. Please try again later.", err)
			return err
		}
		return w.handleExtracted(ctx, phone, details,
			"I couldn't detect any order details in your message. Please describe what you'd like to order.")

	case imageURL != "":
		log.Printf("📱 Processing image message from %s", phone)
		w.sessions.AddMessage(phone, fmt.Sprintf("Image: %s", imageURL), models.MessageTypeImage, models.DirectionInbound,
			map[string]any{"image_url": imageURL, "content_type": msg.MediaContentType})

		details, err := w.extractor.ExtractFromImage(ctx, imageURL)
		if err != nil {
			w.replyError(phone, "⚠️ Sorry, we couldn't process the image. Please try again with a clearer photo or send it as text.", err)
			return err
		}
		return w.handleExtracted(ctx, phone, details,
			"I couldn't detect any order details in the image. Please send your order as text.")

	case audioURL != "":
		log.Printf("📱 Processing audio message from %s", phone)
		w.sessions.AddMessage(phone, fmt.Sprintf("Audio: %s", audioURL), models.MessageTypeAudio, models.DirectionInbound,
			map[string]any{"audio_url": audioURL, "content_type": msg.MediaContentType})

		details, err := w.extractor.ExtractFromAudio(ctx, audioURL, msg.MediaContentType)
		if err != nil {
			w.replyError(phone, "⚠️ Sorry, we couldn't process the audio. Please try again with clearer speech or send your order as text.", err)
			return err
		}
		return w.handleExtracted(ctx, phone, details,
			"I couldn't detect any order details in the audio. Please send your order as text or try speaking more clearly.")

	case pdfURL != "":
		log.Printf("📱 Processing PDF message from %s", phone)
		w.sessions.AddMessage(phone, fmt.Sprintf("PDF: %s", pdfURL), models.MessageTypePDF, models.DirectionInbound,
			map[string]any{"pdf_url": pdfURL, "content_type": msg.MediaContentType})

		details, err := w.extractor.ExtractFromPDF(ctx, pdfURL)
		if err != nil {
			w.replyError(phone, "⚠️ Sorry, we couldn't process the PDF. Please try again with a different file or send your order as text.", err)
			return err
		}
		return w.handleExtracted(ctx, phone, details,
			"I couldn't detect any order details in the PDF. Please send your order as text.")

	default:
		log.Printf("⚠️ Empty or unsupported input from %s", phone)
		w.reply(phone, "Please send your order as text, image, audio, or PDF.", nil)
		return nil
	}
}

// handleExtracted records the extracted order on the session, submits it to
// the ERP, saves the local order record, and confirms to the customer.
// ERP failure is not surfaced to the customer: the order is captured and
// flagged for retry.
func (w *WhatsAppService) handleExtracted(ctx context.Context, phone string, details map[string]any, noOrderReply string) error {
	if len(details) == 0 {
		log.Printf("⚠️ No order details found for %s", phone)
		w.reply(phone, noOrderReply, nil)
		return nil
	}

	session := w.sessions.GetSessionByPhone(phone)
	if session != nil {
		w.sessions.UpdateSession(session.SessionID, models.SessionUpdate{OrderDetails: details})
	}

	record := &models.OrderRecord{
		PhoneNumber: phone,
		Status:      models.OrderStatusPending,
	}
	if session != nil {
		record.SessionID = session.SessionID
	}
	if raw, err := json.Marshal(details); err == nil {
		record.Details = string(raw)
	}

	erpResult, erpErr := w.erp.CreateSalesOrder(ctx, details)
	if erpErr != nil {
		record.Status = models.OrderStatusFailed
		log.Printf("❌ ERP order creation failed for %s: %v", phone, erpErr)
	} else {
		record.Status = models.OrderStatusSubmitted
		record.ERPDocName = erpDocName(erpResult)
	}

	if _, err := w.orders.CreateOrder(record); err != nil {
		log.Printf("❌ Failed to save order record for %s: %v", phone, err)
	}

	w.reply(phone, formatOrderConfirmation(details), nil)
	return nil
}

// reply sends a message to the customer and records it on the session
func (w *WhatsAppService) reply(phone, message string, metadata map[string]any) {
	if err := w.sender.SendWhatsAppMessage(phone, message); err != nil {
		log.Printf("❌ Failed to send WhatsApp response to %s: %v", phone, err)
	}
	w.sessions.AddMessage(phone, message, models.MessageTypeText, models.DirectionOutbound, metadata)
}

func (w *WhatsAppService) replyError(phone, message string, cause error) {
	w.reply(phone, message, map[string]any{"error": cause.Error()})
}

// formatOrderConfirmation renders extracted details for the confirmation reply
func formatOrderConfirmation(details map[string]any) string {
	if len(details) == 0 {
		return "✅ Order received: No order details found."
	}

	rendered, err := json.MarshalIndent(details, "", "  ")
	if err != nil {
		return "✅ Order received."
	}
	return fmt.Sprintf("✅ Order received:\n%s", string(rendered))
}

// erpDocName pulls the created document name out of a Frappe response
func erpDocName(result map[string]any) string {
	data, ok := result["data"].(map[string]any)
	if !ok {
		return ""
	}
	name, _ := data["name"].(string)
	return name
}
