package dicom

import "errors"

// SkipItems can be returned from a WalkFunc to skip the nested elements of
// the element just visited.
var SkipItems = errors.New("skip nested items")

// WalkFunc is called for each element during traversal.
// depth is 0 for top-level elements and increases by one per item level.
// Return nil to continue walking, SkipItems to skip the element's nested
// items, or any other error to stop.
type WalkFunc func(depth int, elem *Element) error

// Walk visits every element of ds in ascending tag order, descending into
// sequence items before moving on to the next top-level element.
//
// Example:
//
//	Walk(ds, func(depth int, e *Element) error {
//	    fmt.Printf("%*s%s %s %v\n", depth*2, "", e.Tag, e.Name(), e.Values)
//	    return nil
//	})
func Walk(ds *Dataset, fn WalkFunc) error {
	for _, tag := range ds.Tags() {
		if err := walkElement(ds.Elements[tag], 0, fn); err != nil {
			return err
		}
	}
	return nil
}

func walkElement(e *Element, depth int, fn WalkFunc) error {
	err := fn(depth, e)
	if errors.Is(err, SkipItems) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, child := range e.Items() {
		if err := walkElement(child, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}
