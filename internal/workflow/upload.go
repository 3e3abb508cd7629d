package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// UploadNode stores the image and swaps the payload for its durable reference.
func UploadNode(rt *Runtime) Node {
	return NodeFunc(func(ctx context.Context, s State) (Transition, error) {
		if s.Image == nil {
			return Transition{}, fmt.Errorf("%w: no image in state", ErrUploadFailed)
		}

		callCtx, cancel := rt.call(ctx)
		defer cancel()

		name := fmt.Sprintf("%s-%s", s.Classification.Noun(), uuid.NewString())
		tags := map[string]string{
			"service": string(s.Classification),
			"session": s.SessionID,
		}

		ref, err := rt.Uploader.Upload(callCtx, *s.Image, rt.UploadFolder, name, tags)
		if err != nil {
			return Transition{}, fmt.Errorf("%w: %w", ErrUploadFailed, err)
		}

		s.UploadedRef = ref
		s.Image = nil

		rt.Logger.InfoContext(ctx, "upload node complete", "session_id", s.SessionID, "ref", ref)
		return Continue(NodePersist, s), nil
	})
}
