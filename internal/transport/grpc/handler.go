package grpc

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/needsclan/Gk1/internal/domain"
	"github.com/needsclan/Gk1/internal/service"
	appErrors "github.com/needsclan/Gk1/pkg/errors"
)

type Handler struct {
	svc    *service.Services
	logger zerolog.Logger
}

func NewHandler(svc *service.Services, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) CreateContact(ctx context.Context, req *CreateContactRequest) (*CreateContactResponse, error) {
	if req.Me == "" || req.Peer == "" {
		return nil, status.Error(codes.InvalidArgument, "me and peer are required")
	}
	convID, err := h.svc.Contacts.CreateContact(ctx, domain.ParticipantID(req.Me), domain.ParticipantID(req.Peer), req.MyDisplayName, req.PeerDisplayName)
	if err != nil {
		return nil, toStatus(err)
	}
	return &CreateContactResponse{ConversationID: convID.String()}, nil
}

func (h *Handler) Enter(ctx context.Context, req *EnterRequest) (*EnterResponse, error) {
	if req.Me == "" || req.Peer == "" {
		return nil, status.Error(codes.InvalidArgument, "me and peer are required")
	}
	s, err := h.svc.Sessions.Open(ctx, domain.ParticipantID(req.Me), domain.ParticipantID(req.Peer))
	if err != nil {
		return nil, toStatus(err)
	}
	return &EnterResponse{
		ConversationID: s.ConversationID().String(),
		MyName:         s.MyName(),
		PeerName:       s.PeerName(),
		State:          string(s.State()),
	}, nil
}

func (h *Handler) Send(ctx context.Context, req *SendRequest) (*SendResponse, error) {
	if req.Me == "" || req.Peer == "" {
		return nil, status.Error(codes.InvalidArgument, "me and peer are required")
	}
	s, err := h.svc.Sessions.Open(ctx, domain.ParticipantID(req.Me), domain.ParticipantID(req.Peer))
	if err != nil {
		return nil, toStatus(err)
	}

	msg, err := s.Send(ctx, req.Text)
	if err != nil && msg == nil {
		return nil, toStatus(err)
	}
	resp := &SendResponse{Message: messageToWire(msg)}
	if err != nil {
		resp.Warning = err.Error()
	}
	return resp, nil
}

func (h *Handler) Dispose(ctx context.Context, req *DisposeRequest) (*DisposeResponse, error) {
	if req.Owner == "" || req.Peer == "" || req.ConversationID == "" {
		return nil, status.Error(codes.InvalidArgument, "owner, peer and conversation_id are required")
	}
	owner, peer := domain.ParticipantID(req.Owner), domain.ParticipantID(req.Peer)

	res, err := h.svc.Disposer.Dispose(ctx, owner, domain.ConversationID(req.ConversationID), peer)
	if err != nil {
		return nil, toStatus(err)
	}
	h.svc.Sessions.Close(owner, peer)

	return &DisposeResponse{
		ConversationID:   res.ConversationID.String(),
		HistoryCollected: res.HistoryCollected,
	}, nil
}

func (h *Handler) GetMirror(ctx context.Context, req *GetMirrorRequest) (*GetMirrorResponse, error) {
	if req.Owner == "" || req.ConversationID == "" {
		return nil, status.Error(codes.InvalidArgument, "owner and conversation_id are required")
	}
	m, err := h.svc.Inbox.Get(ctx, domain.ParticipantID(req.Owner), domain.ConversationID(req.ConversationID))
	if err != nil {
		return nil, toStatus(err)
	}
	if m == nil {
		return &GetMirrorResponse{}, nil
	}
	return &GetMirrorResponse{Found: true, Mirror: mirrorToWire(m)}, nil
}

func (h *Handler) DisplayName(ctx context.Context, req *DisplayNameRequest) (*DisplayNameResponse, error) {
	return &DisplayNameResponse{
		DisplayName: h.svc.Resolver.DisplayName(ctx, domain.ParticipantID(req.ParticipantID)),
	}, nil
}

func (h *Handler) SubscribeInbox(req *SubscribeInboxRequest, stream grpc.ServerStreamingServer[InboxSnapshot]) error {
	if req.Owner == "" {
		return status.Error(codes.InvalidArgument, "owner is required")
	}

	st := h.svc.Inbox.SubscribeInbox(stream.Context(), domain.ParticipantID(req.Owner))
	defer st.Close()

	for snapshot := range st.C() {
		out := &InboxSnapshot{Mirrors: make([]*Mirror, 0, len(snapshot))}
		for _, m := range snapshot {
			out.Mirrors = append(out.Mirrors, mirrorToWire(m))
		}
		if err := stream.Send(out); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
	return nil
}

func (h *Handler) SubscribeMessages(req *SubscribeMessagesRequest, stream grpc.ServerStreamingServer[Message]) error {
	if req.ConversationID == "" {
		return status.Error(codes.InvalidArgument, "conversation_id is required")
	}

	st := h.svc.Log.Subscribe(stream.Context(), domain.ConversationID(req.ConversationID))
	defer st.Close()

	for msg := range st.C() {
		if err := stream.Send(messageToWire(msg)); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
	return nil
}

func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	switch appErrors.CodeOf(err) {
	case appErrors.CodeInvalidIdentity, appErrors.CodeEmptyMessage, appErrors.CodeInvalidArgument:
		return status.Error(codes.InvalidArgument, err.Error())
	case appErrors.CodeInvalidState:
		return status.Error(codes.FailedPrecondition, err.Error())
	case appErrors.CodeStoreUnavailable, appErrors.CodePartialSync:
		return status.Error(codes.Unavailable, err.Error())
	case appErrors.CodeNotFound:
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
