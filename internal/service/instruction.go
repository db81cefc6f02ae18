package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Strob0t/TaskForge/internal/domain"
	"github.com/Strob0t/TaskForge/internal/domain/instruction"
	"github.com/Strob0t/TaskForge/internal/port/database"
)

// InstructionService manages the owner's standing instructions.
type InstructionService struct {
	store  database.Store
	logger *slog.Logger
}

// NewInstructionService creates an InstructionService.
func NewInstructionService(store database.Store, logger *slog.Logger) *InstructionService {
	return &InstructionService{store: store, logger: logger}
}

// Create stores a new active instruction.
func (s *InstructionService) Create(ctx context.Context, ownerID string, req instruction.CreateRequest) (*instruction.Instruction, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("%w: text is required", domain.ErrValidation)
	}

	ins := &instruction.Instruction{
		OwnerID: ownerID,
		Text:    req.Text,
		Active:  true,
	}
	if err := s.store.CreateInstruction(ctx, ins); err != nil {
		return nil, fmt.Errorf("create instruction: %w", err)
	}

	s.logger.Info("instruction created", "instruction", ins.ID, "owner", ownerID)
	return ins, nil
}

// List returns all of the owner's instructions, active or not.
func (s *InstructionService) List(ctx context.Context, ownerID string) ([]*instruction.Instruction, error) {
	return s.store.ListInstructions(ctx, ownerID)
}

// Toggle activates or deactivates an instruction.
func (s *InstructionService) Toggle(ctx context.Context, ownerID, id string, active bool) error {
	if err := s.store.ToggleInstruction(ctx, ownerID, id, active); err != nil {
		return err
	}
	s.logger.Info("instruction toggled", "instruction", id, "active", active)
	return nil
}
