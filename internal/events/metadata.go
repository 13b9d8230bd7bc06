package events

import "context"

// EnvelopeMetadata carries correlation/causation context for emitted events.
type EnvelopeMetadata struct {
	CorrelationID string
	CausationID   string
}

type metadataKey struct{}

func WithMetadata(ctx context.Context, md EnvelopeMetadata) context.Context {
	return context.WithValue(ctx, metadataKey{}, md)
}

func MetadataFrom(ctx context.Context) EnvelopeMetadata {
	md, _ := ctx.Value(metadataKey{}).(EnvelopeMetadata)
	return md
}
