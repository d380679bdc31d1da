package ner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/excavator/excavator/internal/catalog"
)

func TestTechTermDetectorMatchesVocabulary(t *testing.T) {
	d := NewTechTermDetector()
	mentions := d.Recognize("We deployed the service on Kubernetes using Docker and Go.")
	require.Len(t, mentions, 3)
	for _, m := range mentions {
		assert.Equal(t, catalog.EntityTech, m.Type)
	}
}

func TestTechTermDetectorNoMatches(t *testing.T) {
	d := NewTechTermDetector()
	mentions := d.Recognize("Just a plain sentence about lunch.")
	assert.Empty(t, mentions)
}

type fakeNeuralRecognizer struct{}

func (fakeNeuralRecognizer) Recognize(text string) ([]Mention, error) {
	return []Mention{{SurfaceForm: "Jane Doe", Type: catalog.EntityPerson, Confidence: 0.95}}, nil
}

func TestPipelineMergesNeuralAndTechTerms(t *testing.T) {
	p := New(fakeNeuralRecognizer{})
	mentions, err := p.Recognize("Jane Doe uses Python daily.")
	require.NoError(t, err)
	require.Len(t, mentions, 2)

	var sawPerson, sawTech bool
	for _, m := range mentions {
		if m.Type == catalog.EntityPerson {
			sawPerson = true
		}
		if m.Type == catalog.EntityTech {
			sawTech = true
		}
	}
	assert.True(t, sawPerson)
	assert.True(t, sawTech)
}

func TestPipelineWithoutNeuralRecognizer(t *testing.T) {
	p := New(nil)
	mentions, err := p.Recognize("Using Rust and Kafka in production.")
	require.NoError(t, err)
	assert.Len(t, mentions, 2)
}
