package scrape

// AggregatedDataset is the merged result of one category scrape. Value is a
// map[string]any for singleton categories and a []any for repeating ones.
type AggregatedDataset struct {
	Category Category
	Value    any
}

// Aggregate merges successful outcomes into one dataset and discards the
// rest. Singleton categories shallow-merge payload objects in source order,
// later sources winning on key collision; an array payload contributes its
// first element. Repeating categories concatenate items in source order,
// wrapping a non-array payload as a single item and dropping nulls.
//
// Aggregate never fails: with no successful outcomes it yields an empty
// object or list. The all-failed condition is surfaced by Scrape instead.
func Aggregate(category Category, outcomes []SourceOutcome) AggregatedDataset {
	if category.Singleton() {
		return AggregatedDataset{Category: category, Value: mergeObjects(outcomes)}
	}
	return AggregatedDataset{Category: category, Value: concatItems(outcomes)}
}

func mergeObjects(outcomes []SourceOutcome) map[string]any {
	merged := map[string]any{}
	for _, oc := range outcomes {
		if !oc.Success {
			continue
		}
		payload := oc.Payload
		if arr, ok := payload.([]any); ok {
			if len(arr) == 0 {
				continue
			}
			payload = arr[0]
		}
		obj, ok := payload.(map[string]any)
		if !ok {
			continue
		}
		for k, v := range obj {
			merged[k] = v
		}
	}
	return merged
}

func concatItems(outcomes []SourceOutcome) []any {
	items := []any{}
	for _, oc := range outcomes {
		if !oc.Success || oc.Payload == nil {
			continue
		}
		arr, ok := oc.Payload.([]any)
		if !ok {
			arr = []any{oc.Payload}
		}
		for _, item := range arr {
			if item == nil {
				continue
			}
			items = append(items, item)
		}
	}
	return items
}
