package stt

import "testing"

func TestSpeakerRegistry_SameEmbeddingReturnsSameID(t *testing.T) {
	reg := NewSpeakerRegistry()
	emb := []float32{1, 0, 0}

	id1 := reg.Identify(emb)
	id2 := reg.Identify(emb)
	if id1 != id2 {
		t.Errorf("Identify(same embedding) = %d, %d, want equal", id1, id2)
	}
}

func TestSpeakerRegistry_DistinctEmbeddingsGetDistinctIDs(t *testing.T) {
	reg := NewSpeakerRegistry()
	idA := reg.Identify([]float32{1, 0, 0})
	idB := reg.Identify([]float32{0, 1, 0})
	if idA == idB {
		t.Errorf("expected distinct IDs for orthogonal embeddings, got %d for both", idA)
	}
}

func TestSpeakerRegistry_EmptyEmbeddingReturnsZero(t *testing.T) {
	reg := NewSpeakerRegistry()
	if id := reg.Identify(nil); id != 0 {
		t.Errorf("Identify(nil) = %d, want 0", id)
	}
}
