package services

import (
	"sort"
	"strings"

	"namingthings/models"
)

type VoteView struct {
	VoterPlayerID uint `json:"voter_player_id"`
	Accept        bool `json:"accept"`
}

type AnswerView struct {
	ID                uint       `json:"id"`
	Text              string     `json:"text"`
	PlayerID          uint       `json:"player_id"`
	PlayerDisplayName string     `json:"player_display_name"`
	Status            string     `json:"status"`
	VoterAccepts      []VoteView `json:"voter_accepts"`
}

type AnswerGroup struct {
	NormalizedText string       `json:"normalized_text"`
	IsCommon       bool         `json:"is_common"`
	Answers        []AnswerView `json:"answers"`
}

// NormalizeText is the key used for duplicate detection and grouping.
func NormalizeText(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// GroupAnswers buckets answers by normalized text, sorted by that text.
// A group is common once two different players submitted it.
func GroupAnswers(answers []models.Answer, names map[uint]string) []AnswerGroup {
	byText := make(map[string]*AnswerGroup)
	players := make(map[string]map[uint]struct{})

	sorted := make([]models.Answer, len(answers))
	copy(sorted, answers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for _, a := range sorted {
		group, ok := byText[a.NormalizedText]
		if !ok {
			group = &AnswerGroup{NormalizedText: a.NormalizedText}
			byText[a.NormalizedText] = group
			players[a.NormalizedText] = make(map[uint]struct{})
		}
		players[a.NormalizedText][a.PlayerID] = struct{}{}

		votes := make([]VoteView, 0, len(a.Votes))
		for _, v := range a.Votes {
			votes = append(votes, VoteView{VoterPlayerID: v.VoterPlayerID, Accept: v.Accept})
		}
		sort.Slice(votes, func(i, j int) bool { return votes[i].VoterPlayerID < votes[j].VoterPlayerID })

		group.Answers = append(group.Answers, AnswerView{
			ID:                a.ID,
			Text:              a.Text,
			PlayerID:          a.PlayerID,
			PlayerDisplayName: names[a.PlayerID],
			Status:            a.Status,
			VoterAccepts:      votes,
		})
	}

	groups := make([]AnswerGroup, 0, len(byText))
	for text, group := range byText {
		group.IsCommon = len(players[text]) >= 2
		groups = append(groups, *group)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].NormalizedText < groups[j].NormalizedText })
	return groups
}

// ResolveDispute settles a disputed answer. Rejection needs strictly more
// reject votes than accept votes; ties stay accepted.
func ResolveDispute(votes []models.DisputeVote) string {
	accepts, rejects := 0, 0
	for _, v := range votes {
		if v.Accept {
			accepts++
		} else {
			rejects++
		}
	}
	if rejects > accepts {
		return models.AnswerRejected
	}
	return models.AnswerAccepted
}

// TallyScores counts accepted answers per player.
func TallyScores(answers []models.Answer) map[uint]int {
	scores := make(map[uint]int)
	for _, a := range answers {
		if a.Status == models.AnswerAccepted {
			scores[a.PlayerID]++
		}
	}
	return scores
}

// dedupeBatch drops blank entries, repeats within the batch, and anything
// already in existing (normalized texts the player has on record).
func dedupeBatch(texts []string, existing map[string]struct{}) []models.Answer {
	seen := make(map[string]struct{}, len(texts))
	var out []models.Answer
	for _, raw := range texts {
		text := strings.TrimSpace(raw)
		normalized := NormalizeText(text)
		if normalized == "" {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		if _, dup := existing[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, models.Answer{Text: text, NormalizedText: normalized, Status: models.AnswerAccepted})
	}
	return out
}
