// Package tips manages the "bite-sized sumo" facts rotated through digest
// emails: a seeded corpus, least-recently-used selection, and usage tracking.
package tips

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/sumo-news-digest/internal/news"
	"github.com/JakeFAU/sumo-news-digest/internal/store"
)

// tipStore is the slice of the store the manager needs.
type tipStore interface {
	SeedTips(ctx context.Context, tips []news.Tip) (int, error)
	UnusedTip(ctx context.Context, category string, notUsedFor time.Duration) (news.Tip, error)
	MarkTipUsed(ctx context.Context, id int64) error
}

// Manager selects tips for digests.
type Manager struct {
	store    tipStore
	rotation time.Duration // how long a tip rests before reuse
	logger   *zap.Logger
}

// New constructs a Manager. rotation is the rest period before a tip may be
// reused; zero falls back to 30 days.
func New(st tipStore, rotation time.Duration, logger *zap.Logger) *Manager {
	if rotation <= 0 {
		rotation = 30 * 24 * time.Hour
	}
	return &Manager{store: st, rotation: rotation, logger: logger}
}

// Seed loads the starter corpus when the tips table is empty. Safe to call
// on every startup.
func (m *Manager) Seed(ctx context.Context) error {
	added, err := m.store.SeedTips(ctx, seedCorpus)
	if err != nil {
		return fmt.Errorf("seed tips: %w", err)
	}
	if added > 0 {
		m.logger.Info("seeded sumo tips", zap.Int("count", added))
	}
	return nil
}

// Next picks the tip for the next digest and records its use. category is
// optional. Returns store.ErrNotFound when no tip exists at all.
func (m *Manager) Next(ctx context.Context, category string) (news.Tip, error) {
	tip, err := m.store.UnusedTip(ctx, category, m.rotation)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return news.Tip{}, err
		}
		return news.Tip{}, fmt.Errorf("select tip: %w", err)
	}
	if err := m.store.MarkTipUsed(ctx, tip.ID); err != nil {
		return news.Tip{}, fmt.Errorf("mark tip used: %w", err)
	}
	return tip, nil
}

// seedCorpus is the starter set of facts. Categories feed the rotation
// filter; difficulty is informational.
var seedCorpus = []news.Tip{
	{Title: "Ancient Origins", Category: "history", Difficulty: "beginner",
		Content: "Sumo wrestling dates back over 1,500 years and originated as a Shinto ritual to entertain the gods and ensure a good harvest. The first recorded sumo match was in 23 BC!"},
	{Title: "The Yokozuna Tradition", Category: "ranks", Difficulty: "beginner",
		Content: "The title \"Yokozuna\" means \"horizontal rope\" and refers to the sacred rope worn during ceremonies. Only 75 wrestlers in history have achieved this highest rank."},
	{Title: "Salt Purification Ritual", Category: "rituals", Difficulty: "beginner",
		Content: "Wrestlers throw salt (shio) into the ring before matches to purify the sacred space and ward off evil spirits. Up to 45kg of salt is used per tournament day!"},
	{Title: "Winning Techniques: Kimarite", Category: "techniques", Difficulty: "intermediate",
		Content: "There are 82 official winning techniques (kimarite) in sumo. The most common is \"yorikiri\" - carrying your opponent out of the ring while holding their belt."},
	{Title: "The Power of the Tachiai", Category: "techniques", Difficulty: "beginner",
		Content: "The initial charge (tachiai) often determines the match outcome. Wrestlers can reach speeds of 25+ mph in just the first few steps!"},
	{Title: "The Sacred Dohyo", Category: "traditions", Difficulty: "beginner",
		Content: "The sumo ring (dohyo) is made of clay and considered sacred. It's rebuilt for each tournament and blessed by Shinto priests."},
	{Title: "Topknot Significance", Category: "traditions", Difficulty: "intermediate",
		Content: "The traditional topknot (chonmage) isn't just for style - it once protected samurai heads when wearing helmets. In sumo, different styles indicate rank."},
	{Title: "Six Grand Tournaments", Category: "tournaments", Difficulty: "beginner",
		Content: "There are six grand tournaments (honbasho) per year: January, March, May (Tokyo), July (Nagoya), September (Tokyo), and November (Kyushu)."},
	{Title: "Perfect Records Are Rare", Category: "tournaments", Difficulty: "intermediate",
		Content: "A perfect 15-0 tournament record (zensho-yusho) has only been achieved 84 times in the modern era. The last was Hakuho in 2017."},
	{Title: "Sumo Stable Life", Category: "culture", Difficulty: "beginner",
		Content: "Wrestlers live together in training stables (heya) where junior wrestlers cook, clean, and serve senior members. It's like a traditional Japanese family system."},
	{Title: "The Gyoji Referee", Category: "culture", Difficulty: "intermediate",
		Content: "Sumo referees (gyoji) carry a ceremonial dagger as a symbol that they're prepared to commit seppuku if they make a serious judging error!"},
	{Title: "Hakuho's Record Reign", Category: "wrestlers", Difficulty: "intermediate",
		Content: "Hakuho holds the record for most tournament victories (45) and most wins overall (1,187). He was yokozuna for 14 years!"},
	{Title: "International Champions", Category: "wrestlers", Difficulty: "beginner",
		Content: "While sumo originated in Japan, wrestlers from Mongolia, Hawaii, Bulgaria, and other countries have become yokozuna and champions."},
	{Title: "Sumo Size Myths", Category: "facts", Difficulty: "beginner",
		Content: "Not all sumo wrestlers are huge! Some successful wrestlers weigh under 300 pounds and rely on speed and technique rather than pure size."},
	{Title: "The Chanko-nabe Diet", Category: "culture", Difficulty: "beginner",
		Content: "Sumo wrestlers eat chanko-nabe (hot pot stew) containing meat, fish, vegetables, and rice. They eat only twice a day but in massive quantities!"},
	{Title: "Television Revolution", Category: "modern", Difficulty: "beginner",
		Content: "Sumo was first televised in 1953 and became hugely popular on TV. Today, matches are broadcast worldwide and streamed online."},
}
