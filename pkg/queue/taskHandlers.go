package queue

import (
	"context"
	"fmt"
	"log"

	"github.com/ticketforge/ticketforge/internal/database"
)

// TelegramBot is the notification surface task handlers use
type TelegramBot interface {
	SendMessage(chatID, text string) error
}

// TaskHandler dispatches queue tasks to their handlers
type TaskHandler struct {
	ticketTypeRepo database.TicketTypeRepository
	eventRepo      database.EventRepository
	userRepo       database.UserRepository
	telegramBot    TelegramBot
	telegramChatID string
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(
	ticketTypeRepo database.TicketTypeRepository,
	eventRepo database.EventRepository,
	userRepo database.UserRepository,
	telegramBot TelegramBot,
	telegramChatID string,
) *TaskHandler {
	return &TaskHandler{
		ticketTypeRepo: ticketTypeRepo,
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		telegramBot:    telegramBot,
		telegramChatID: telegramChatID,
	}
}

// HandleTask routes a task by type
func (h *TaskHandler) HandleTask(task *Task) error {
	log.Printf("Processing task %s of type %s (attempt %d/%d)",
		task.ID, task.Type, task.Attempts, task.MaxRetries)

	switch task.Type {
	case TaskTypeTicketMinted:
		return h.handleTicketMinted(task)
	case TaskTypeTicketVerified:
		return h.handleTicketVerified(task)
	case TaskTypeSelloutAlert:
		return h.handleSelloutAlert(task)
	case TaskTypeReconcileCounters:
		return h.handleReconcileCounters(task)
	default:
		return fmt.Errorf("unknown task type: %s", task.Type)
	}
}

// handleTicketMinted logs the mint for the audit trail and notifies the
// owner when a Telegram id is linked
func (h *TaskHandler) handleTicketMinted(task *Task) error {
	ctx := context.Background()

	ticketID := task.GetString("ticket_id")
	ownerID := task.GetString("owner_id")
	eventID := task.GetString("event_id")
	if ticketID == "" || ownerID == "" {
		return fmt.Errorf("invalid mint task: missing ticket_id or owner_id")
	}

	log.Printf("Audit: ticket %s minted for owner %s (event %s)", ticketID, ownerID, eventID)

	if h.telegramBot == nil {
		return nil
	}

	owner, err := h.userRepo.GetByID(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("failed to load owner %s: %v", ownerID, err)
	}
	if owner.TelegramID == "" {
		return nil
	}

	event, err := h.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to load event %s: %v", eventID, err)
	}

	text := fmt.Sprintf("🎟 Your ticket for \"%s\" is ready. Show the QR code in your ticket gallery at the entrance.", event.Name)
	if err := h.telegramBot.SendMessage(owner.TelegramID, text); err != nil {
		return fmt.Errorf("failed to send mint notification: %v", err)
	}
	return nil
}

// handleTicketVerified keeps the verification audit trail
func (h *TaskHandler) handleTicketVerified(task *Task) error {
	ticketID := task.GetString("ticket_id")
	status := task.GetString("status")
	operatorID := task.GetString("operator_id")
	if ticketID == "" {
		return fmt.Errorf("invalid verification task: missing ticket_id")
	}

	log.Printf("Audit: ticket %s scan by operator %s -> %s", ticketID, operatorID, status)
	return nil
}

// handleSelloutAlert notifies the organizer that a ticket type sold out
func (h *TaskHandler) handleSelloutAlert(task *Task) error {
	ctx := context.Background()

	eventID := task.GetString("event_id")
	typeName := task.GetString("ticket_type_name")
	if eventID == "" {
		return fmt.Errorf("invalid sellout task: missing event_id")
	}

	event, err := h.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to load event %s: %v", eventID, err)
	}

	log.Printf("Ticket type %q of event %q sold out", typeName, event.Name)

	if h.telegramBot == nil {
		return nil
	}

	organizer, err := h.userRepo.GetByID(ctx, event.OrganizerID)
	if err != nil {
		return fmt.Errorf("failed to load organizer %s: %v", event.OrganizerID, err)
	}

	chatID := organizer.TelegramID
	if chatID == "" {
		chatID = h.telegramChatID
	}
	if chatID == "" {
		return nil
	}

	text := fmt.Sprintf("🔥 %q tickets for \"%s\" are sold out (%d/%d).",
		typeName, event.Name, event.TicketsSold, event.TotalCapacity)
	if err := h.telegramBot.SendMessage(chatID, text); err != nil {
		return fmt.Errorf("failed to send sellout notification: %v", err)
	}
	return nil
}

// handleReconcileCounters triggers a counter repair pass on demand
func (h *TaskHandler) handleReconcileCounters(task *Task) error {
	ctx := context.Background()

	repaired, err := h.ticketTypeRepo.RecountSold(ctx)
	if err != nil {
		return fmt.Errorf("failed to reconcile counters: %v", err)
	}
	if repaired > 0 {
		log.Printf("Reconciled %d drifted sold counters", repaired)
	}
	return nil
}
