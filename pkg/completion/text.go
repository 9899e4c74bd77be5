package completion

import "github.com/shinshin86/aituber-onair-sub001/pkg/api"

// AppendText merges text into a trailing TextBlock or appends a new one.
// An empty string leaves blocks unchanged.
func AppendText(blocks []api.Block, text string) []api.Block {
	if text == "" {
		return blocks
	}
	if n := len(blocks); n > 0 {
		if last, ok := blocks[n-1].(api.TextBlock); ok {
			blocks[n-1] = api.TextBlock{Text: last.Text + text}
			return blocks
		}
	}
	return append(blocks, api.TextBlock{Text: text})
}

// Flatten concatenates the text of every TextBlock in order.
func Flatten(blocks []api.Block) string {
	return api.FlattenText(blocks)
}
