package intelligence

import (
	"sort"

	"github.com/fragent/fragent-go/pkg/storage"
)

// KnowledgePriorityWeight scales a knowledge item's priority when it is
// combined with semantic similarity.
const KnowledgePriorityWeight = 0.1

// ScoredMemory pairs a memory with its ranking score.
type ScoredMemory struct {
	Memory *storage.Memory
	Score  float64
}

// ScoredKnowledge pairs a knowledge item with its ranking score.
type ScoredKnowledge struct {
	Item  *storage.KnowledgeItem
	Score float64
}

// RankMemories selects at most limit memories.
//
// Without a query embedding the most recent memories win (created_at
// descending, later position in the input breaking ties). With an embedding
// only memories that carry an embedding are eligible, ordered by cosine
// similarity descending. The input slice is not modified.
func RankMemories(memories []*storage.Memory, query []float64, limit int) []ScoredMemory {
	var scored []ScoredMemory

	if len(query) == 0 {
		scored = make([]ScoredMemory, 0, len(memories))
		for _, m := range memories {
			scored = append(scored, ScoredMemory{Memory: m})
		}
		// Reverse first so that stable sorting puts later inserts ahead on ties.
		for i, j := 0, len(scored)-1; i < j; i, j = i+1, j-1 {
			scored[i], scored[j] = scored[j], scored[i]
		}
		sort.SliceStable(scored, func(i, j int) bool {
			return scored[i].Memory.CreatedAt.After(scored[j].Memory.CreatedAt)
		})
	} else {
		for _, m := range memories {
			if len(m.Embedding) == 0 {
				continue
			}
			scored = append(scored, ScoredMemory{Memory: m, Score: CosineSimilarity(query, m.Embedding)})
		}
		sort.SliceStable(scored, func(i, j int) bool {
			return scored[i].Score > scored[j].Score
		})
	}

	return truncate(scored, limit)
}

// RankKnowledge selects at most limit knowledge items.
//
// Without a query embedding items are ordered by priority descending. With an
// embedding, items carrying an embedding score cos(query, item) * (1 + 0.1 *
// priority) and items without one score 0.1 * priority. Ties keep input order.
func RankKnowledge(items []*storage.KnowledgeItem, query []float64, limit int) []ScoredKnowledge {
	scored := make([]ScoredKnowledge, 0, len(items))
	for _, item := range items {
		s := ScoredKnowledge{Item: item}
		switch {
		case len(query) == 0:
			s.Score = float64(item.Priority)
		case len(item.Embedding) > 0:
			s.Score = CosineSimilarity(query, item.Embedding) * (1 + KnowledgePriorityWeight*float64(item.Priority))
		default:
			s.Score = KnowledgePriorityWeight * float64(item.Priority)
		}
		scored = append(scored, s)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return truncate(scored, limit)
}

// SelectTaskTemplate returns the highest-priority template whose task type
// matches taskType, or nil when none matches. An empty taskType matches every
// template. Ties keep the first template in input order.
func SelectTaskTemplate(templates []*storage.TaskTemplate, taskType string) *storage.TaskTemplate {
	var best *storage.TaskTemplate
	for _, tmpl := range templates {
		if taskType != "" && tmpl.TaskType != taskType {
			continue
		}
		if best == nil || tmpl.Priority > best.Priority {
			best = tmpl
		}
	}
	return best
}

func truncate[T any](s []T, limit int) []T {
	if limit >= 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}
