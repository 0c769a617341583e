package pkg

// ComputeBoxDimension derives the display box metric for decoded content
// against a usage context. Width is the maximum over lines of the summed
// glyph widths on that line; flag tokens contribute zero width. Height is
// the number of rendered lines, where end-line and continuation tokens are
// line boundaries and the end-block token closes the final line; it is
// capped at the context's line limit. A line wider than the context's width
// limit is an error, never a truncation.
func ComputeBoxDimension(content Content, ctx WidthContext, entry string) (BoxDimension, error) {
	width := 0
	lineWidth := 0
	lines := 0
	lineOpen := false

	closeLine := func() error {
		// An empty rendered line still occupies one width unit.
		if lineWidth == 0 {
			lineWidth = 1
		}
		if ctx.MaxWidth > 0 && lineWidth > ctx.MaxWidth {
			return &WidthLimitExceededError{
				Entry: entry, Context: ctx.Name,
				Line: lines + 1, Width: lineWidth, Limit: ctx.MaxWidth,
			}
		}
		if lineWidth > width {
			width = lineWidth
		}
		lines++
		lineWidth = 0
		lineOpen = false
		return nil
	}

	for _, seg := range content {
		if seg.IsFlag() {
			switch seg.Flag.Category {
			case FlagEndLine, FlagContinuation, FlagEndBlock:
				if err := closeLine(); err != nil {
					return BoxDimension{}, err
				}
			}
			continue
		}
		lineWidth += seg.Glyph.Width
		lineOpen = true
	}
	if lineOpen {
		// Content is validated to end in an end-block token, but keep
		// the metric total even for partial content.
		if err := closeLine(); err != nil {
			return BoxDimension{}, err
		}
	}

	height := lines
	if ctx.MaxLines > 0 && height > ctx.MaxLines {
		height = ctx.MaxLines
	}
	return BoxDimension{Width: width, Height: height}, nil
}
