package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeuristicTitleAndAuthors(t *testing.T) {
	title, authors := HeuristicTitleAndAuthors("Deep Residual Learning\nKaiming He, Xiangyu Zhang and Shaoqing Ren\nAbstract\nbody")
	require.Equal(t, "Deep Residual Learning", title)
	require.Equal(t, []string{"Kaiming He", "Xiangyu Zhang", "Shaoqing Ren"}, authors)
}

func TestHeuristicTitleOnly(t *testing.T) {
	title, authors := HeuristicTitleAndAuthors("Lone Title")
	require.Equal(t, "Lone Title", title)
	require.Nil(t, authors)
}

func TestHeuristicEmptyText(t *testing.T) {
	title, authors := HeuristicTitleAndAuthors("")
	require.Empty(t, title)
	require.Nil(t, authors)
}
