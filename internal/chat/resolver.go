package chat

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ismaelvargas20/motochat/internal/api"
	"github.com/ismaelvargas20/motochat/internal/logging"
	"github.com/ismaelvargas20/motochat/internal/models"
)

// DirectorySource fetches the profile and listing lookups the resolver needs.
type DirectorySource interface {
	GetProfile(ctx context.Context, clientID string) (api.Profile, error)
	GetListing(ctx context.Context, listingID string, listingType models.ListingType) (api.Listing, error)
}

// Resolver derives a stable, non-self display identity for conversations
// whose title is still a numeric placeholder. Resolution is best-effort
// enrichment: failures are swallowed and the placeholder remains until the
// next pass.
type Resolver struct {
	store     *Store
	directory DirectorySource
	selfName  string
	logger    zerolog.Logger
}

// NewResolver creates a resolver bound to a store. selfName is the current
// user's own display name, used to reject a resolution that would show the
// user to themselves; it may be empty.
func NewResolver(store *Store, directory DirectorySource, selfName string) *Resolver {
	return &Resolver{
		store:     store,
		directory: directory,
		selfName:  strings.TrimSpace(selfName),
		logger:    logging.Component("resolver"),
	}
}

// Resolve enriches one conversation's display title in place. No-op when a
// definitive name is already known or when the entry carries nothing to
// resolve with.
func (r *Resolver) Resolve(ctx context.Context, conversationID string) {
	conv, ok := r.store.Get(conversationID)
	if !ok || !IsPlaceholder(conv.DisplayTitle) {
		return
	}

	name := ""
	if candidate := r.candidateParticipant(&conv); candidate != "" {
		name = r.resolveByProfile(ctx, candidate)
	}
	if name == "" && conv.HasListing() {
		name = r.resolveByListing(ctx, &conv)
	}
	if name == "" {
		return
	}
	if r.isSelfName(name) {
		// Never settle on the current user's own identity.
		return
	}

	// Re-check before patching: another pass may have resolved a definitive
	// name while our round-trips were in flight.
	current, ok := r.store.Get(conversationID)
	if !ok || !IsPlaceholder(current.DisplayTitle) {
		return
	}
	if err := r.store.Apply(conversationID, Patch{DisplayTitle: &name}); err != nil {
		r.logger.Debug().Err(err).Str("conversation_id", conversationID).Msg("title patch skipped")
	}
}

// ResolveAll runs one enrichment pass over every eligible entry.
func (r *Resolver) ResolveAll(ctx context.Context) {
	for _, conv := range r.store.List() {
		if ctx.Err() != nil {
			return
		}
		if IsPlaceholder(conv.DisplayTitle) {
			r.Resolve(ctx, conv.ID)
		}
	}
}

// candidateParticipant picks the id to resolve directly. If the only
// candidate is the current user, it falls back to the last message's sender
// before giving up.
func (r *Resolver) candidateParticipant(conv *models.Conversation) string {
	self := r.store.SelfID()
	if other := conv.OtherParticipantID(self); other != "" {
		return other
	}
	if sender := strings.TrimSpace(conv.Last.SenderID); sender != "" && sender != self {
		return sender
	}
	return ""
}

func (r *Resolver) resolveByProfile(ctx context.Context, clientID string) string {
	profile, err := r.directory.GetProfile(ctx, clientID)
	if err != nil {
		r.logger.Debug().Err(err).Str("client_id", clientID).Msg("profile enrichment failed")
		return ""
	}
	return strings.TrimSpace(profile.Name)
}

// resolveByListing follows the listing to its owning client, then fetches
// that client's profile. Two independent round-trips, both best-effort.
func (r *Resolver) resolveByListing(ctx context.Context, conv *models.Conversation) string {
	listing, err := r.directory.GetListing(ctx, conv.RelatedListingID, conv.RelatedListingType)
	if err != nil {
		r.logger.Debug().Err(err).Str("listing_id", conv.RelatedListingID).Msg("listing enrichment failed")
		return ""
	}
	ownerID := strings.TrimSpace(listing.OwnerID)
	if ownerID == "" {
		return ""
	}
	if ownerID == r.store.SelfID() {
		// The current user owns the listing; the counterpart is the buyer.
		if sender := strings.TrimSpace(conv.Last.SenderID); sender != "" && sender != ownerID {
			return r.resolveByProfile(ctx, sender)
		}
		return ""
	}
	return r.resolveByProfile(ctx, ownerID)
}

func (r *Resolver) isSelfName(name string) bool {
	if r.selfName == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(name), r.selfName)
}
