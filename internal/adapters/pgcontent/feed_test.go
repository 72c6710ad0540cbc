package pgcontent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/stencil/internal/adapters/pgcontent"
	"go.trai.ch/stencil/internal/core/domain"
)

func TestParseNotification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		payload string
		want    domain.ContentChange
		ok      bool
	}{
		{"added:/apps/a.html", domain.ContentChange{Path: "/apps/a.html", Kind: domain.ChangeAdded}, true},
		{"modified:/apps/a:b.html", domain.ContentChange{Path: "/apps/a:b.html", Kind: domain.ChangeModified}, true},
		{"removed:/libs/x.java", domain.ContentChange{Path: "/libs/x.java", Kind: domain.ChangeRemoved}, true},
		{"moved:/apps/a.html", domain.ContentChange{}, false},
		{"added:apps/a.html", domain.ContentChange{}, false},
		{"garbage", domain.ContentChange{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			t.Parallel()
			got, ok := pgcontent.ParseNotification(tt.payload)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
