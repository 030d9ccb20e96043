package chat

import (
	"fmt"
	"sort"
)

// TitleLookup resolves a listing's title. ok is false when the listing is gone.
type TitleLookup func(listingID int64) (title string, ok bool)

type conversationKey struct {
	listingID      int64
	counterpartyID string
}

// Counterparty returns the participant of m who is not userID.
func Counterparty(m Message, userID string) string {
	if m.SenderID == userID {
		return m.RecipientID
	}
	return m.SenderID
}

// Aggregate reduces userID's messages to one conversation per
// (listing, counterparty), each represented by its newest message. The result
// is ordered newest conversation first and does not depend on input order.
func Aggregate(userID string, msgs []Message, titles TitleLookup) []Conversation {
	sorted := make([]Message, len(msgs))
	copy(sorted, msgs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		}
		return sorted[i].ID > sorted[j].ID
	})

	seen := make(map[conversationKey]struct{})
	out := make([]Conversation, 0)
	for _, m := range sorted {
		if m.SenderID != userID && m.RecipientID != userID {
			continue
		}
		counterparty := Counterparty(m, userID)
		if counterparty == userID {
			continue
		}

		key := conversationKey{listingID: m.ListingID, counterpartyID: counterparty}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		out = append(out, Conversation{
			ListingID:          m.ListingID,
			CounterpartyID:     counterparty,
			ListingTitle:       listingTitle(titles, m.ListingID),
			LastMessageContent: m.Content,
			LastMessageAt:      m.CreatedAt,
		})
	}
	return out
}

func listingTitle(titles TitleLookup, listingID int64) string {
	if titles != nil {
		if title, ok := titles(listingID); ok {
			return title
		}
	}
	return fmt.Sprintf("Listing %d", listingID)
}
