package stt

import (
	"sync"

	"aiwisper/voiceprint"
)

const speakerMatchThreshold = 0.5

// speakerProfile is one registered global speaker identity.
type speakerProfile struct {
	ID        int
	Embedding []float32
}

// SpeakerRegistry assigns a stable global speaker ID to each segment's
// embedding, matching by cosine distance against previously seen
// speakers. It generalizes ai/pipeline.go's
// mapToGlobalSpeakers/findMatchingGlobalSpeaker/registerNewSpeaker from
// a single-call diarization pass into a registry that lives for the
// whole dispatch loop, so speaker identity is stable across chunks.
type SpeakerRegistry struct {
	mu       sync.Mutex
	profiles map[int]*speakerProfile
	nextID   int
}

// NewSpeakerRegistry returns an empty registry.
func NewSpeakerRegistry() *SpeakerRegistry {
	return &SpeakerRegistry{profiles: make(map[int]*speakerProfile), nextID: 1}
}

// Identify returns the global ID for embedding, registering a new
// speaker if none of the known profiles are close enough.
func (r *SpeakerRegistry) Identify(embedding []float32) int {
	if len(embedding) == 0 {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	bestDist := 2.0
	bestID := -1
	for id, p := range r.profiles {
		dist := voiceprint.CosineDistance(embedding, p.Embedding)
		if dist < bestDist {
			bestDist = dist
			bestID = id
		}
	}
	if bestID != -1 && bestDist < speakerMatchThreshold {
		return bestID
	}

	id := r.nextID
	r.nextID++
	embCopy := make([]float32, len(embedding))
	copy(embCopy, embedding)
	r.profiles[id] = &speakerProfile{ID: id, Embedding: embCopy}
	return id
}
