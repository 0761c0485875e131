package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spounge-ai/rosetta/internal/domain"
	app_errors "github.com/spounge-ai/rosetta/internal/errors"
	"github.com/spounge-ai/rosetta/internal/messaging"
)

// Commander runs keyboard commands in the background context.
type Commander interface {
	OnCommand(ctx context.Context, cmd messaging.Command) (bool, error)
}

// PreferencesUpdater stores a preferences patch and broadcasts theme changes.
type PreferencesUpdater interface {
	Update(ctx context.Context, patch domain.PreferencesProps) (domain.UserPreferences, error)
}

type BridgeDeps struct {
	Bus             *messaging.Bus
	Commands        Commander
	Preferences     PreferencesUpdater
	ErrorClassifier *app_errors.ErrorClassifier
	Logger          *slog.Logger
}

type bridgeService struct {
	deps BridgeDeps
}

func NewBridgeService(deps BridgeDeps) BridgeServer {
	return &bridgeService{deps: deps}
}

// Send delivers the raw message as the popup would. The receiving router
// validates it; an invalid message yields an empty response, not an error.
func (s *bridgeService) Send(ctx context.Context, req *SendRequest) (*SendResponse, error) {
	to, err := ParseAddress(req.To)
	if err != nil {
		return nil, s.fail(ctx, app_errors.InvalidInput(err.Error(), err), MethodSend)
	}

	resp, err := s.deps.Bus.SendRaw(ctx, messaging.Popup(), to, req.Message)
	if err != nil {
		return nil, s.fail(ctx, app_errors.CommunicationFailed(err), MethodSend)
	}
	return &SendResponse{Response: resp}, nil
}

func (s *bridgeService) Command(ctx context.Context, req *CommandRequest) (*CommandResponse, error) {
	handled, err := s.deps.Commands.OnCommand(ctx, messaging.Command(req.Command))
	if err != nil {
		return nil, s.fail(ctx, err, MethodCommand)
	}
	return &CommandResponse{Handled: handled}, nil
}

func (s *bridgeService) UpdatePreferences(ctx context.Context, req *UpdatePreferencesRequest) (*PreferencesResponse, error) {
	prefs, err := s.deps.Preferences.Update(ctx, req.Patch)
	if err != nil {
		return nil, s.fail(ctx, err, MethodUpdatePreferences)
	}
	return &PreferencesResponse{Preferences: prefs.Props()}, nil
}

func (s *bridgeService) fail(ctx context.Context, err error, method string) error {
	return s.deps.ErrorClassifier.LogAndSanitize(ctx, s.deps.ErrorClassifier.Classify(err, method))
}

// ParseAddress reads "background", "popup" or "tab:<id>".
func ParseAddress(raw string) (messaging.Address, error) {
	switch raw {
	case string(messaging.KindBackground):
		return messaging.Background(), nil
	case string(messaging.KindPopup):
		return messaging.Popup(), nil
	}
	idStr, ok := strings.CutPrefix(raw, string(messaging.KindTab)+":")
	if !ok {
		return messaging.Address{}, fmt.Errorf("unknown address %q", raw)
	}
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		return messaging.Address{}, fmt.Errorf("invalid tab id %q", idStr)
	}
	return messaging.Tab(id), nil
}
