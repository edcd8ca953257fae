package cart

import "github.com/ayamansour/souqsync/internal/identity"

// Reconcile folds an authoritative upstream snapshot back into the client's
// composite-id space. The upstream only keys lines by base product id, so a
// naive merge would collapse variant lines that share a base id; instead,
// previous client lines are partitioned into per-base FIFO queues and each
// server item consumes the next prior identity for its base.
//
// Output preserves the server's item order. Field values resolve by
// first-present precedence: server, then dequeued prior, then fallback, then
// hard defaults (price 0, quantity 1).
//
// Known limits, accepted by design: if the upstream merged two variants into
// one line, the surplus prior identity is dropped (information lost at the
// upstream boundary); if the upstream reorders items sharing a base id, FIFO
// assignment may swap their composite ids.
func Reconcile(serverItems []ServerItem, previous []Line, fallback *Line) []Line {
	queues := make(map[string][]Line, len(previous))
	for _, line := range previous {
		base := identity.NormalizeBaseID(line.CompositeID)
		queues[base] = append(queues[base], line)
	}

	out := make([]Line, 0, len(serverItems))
	for _, item := range serverItems {
		raw := item.rawID()
		base := identity.NormalizeBaseID(raw)

		var prior *Line
		if queue := queues[base]; len(queue) > 0 {
			head := queue[0]
			queues[base] = queue[1:]
			prior = &head
		}

		out = append(out, mergeLine(item, raw, base, prior, fallback))
	}
	return out
}

func mergeLine(item ServerItem, raw, base string, prior, fallback *Line) Line {
	// Seed line metadata (part number, rental linkage, max quantity) from the
	// prior identity, else the fallback; the upstream never carries these.
	line := Line{}
	switch {
	case prior != nil:
		line = *prior
	case fallback != nil:
		line = *fallback
	}

	if prior != nil {
		line.CompositeID = prior.CompositeID
	} else if base != "" {
		line.CompositeID = base
	} else {
		line.CompositeID = raw
	}

	if base != "" {
		line.BaseProductID = base
	} else if line.BaseProductID == "" {
		line.BaseProductID = raw
	}

	line.Name = firstNonEmpty(item.Name, lineField(prior, func(l Line) string { return l.Name }), lineField(fallback, func(l Line) string { return l.Name }))
	line.Brand = firstNonEmpty(item.Brand, lineField(prior, func(l Line) string { return l.Brand }), lineField(fallback, func(l Line) string { return l.Brand }))
	line.Image = firstNonEmpty(item.Image, lineField(prior, func(l Line) string { return l.Image }), lineField(fallback, func(l Line) string { return l.Image }))

	switch {
	case item.Price != nil:
		line.Price = *item.Price
	case prior != nil:
		line.Price = prior.Price
	case fallback != nil:
		line.Price = fallback.Price
	default:
		line.Price = 0
	}

	switch {
	case item.Quantity != nil:
		line.Quantity = *item.Quantity
	case prior != nil && prior.Quantity > 0:
		line.Quantity = prior.Quantity
	case fallback != nil && fallback.Quantity > 0:
		line.Quantity = fallback.Quantity
	default:
		line.Quantity = 1
	}

	return line
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func lineField(l *Line, get func(Line) string) string {
	if l == nil {
		return ""
	}
	return get(*l)
}
