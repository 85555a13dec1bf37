package host

// listenerSet holds callbacks in registration order.
type listenerSet struct {
	next int
	ids  []int
	fns  map[int]func()
}

func (l *listenerSet) add(fn func()) func() {
	if l.fns == nil {
		l.fns = make(map[int]func())
	}
	l.next++
	id := l.next
	l.fns[id] = fn
	l.ids = append(l.ids, id)
	return func() { l.remove(id) }
}

func (l *listenerSet) remove(id int) {
	if _, ok := l.fns[id]; !ok {
		return
	}
	delete(l.fns, id)
	for i, v := range l.ids {
		if v == id {
			l.ids = append(l.ids[:i:i], l.ids[i+1:]...)
			break
		}
	}
}

func (l *listenerSet) fire() {
	ids := append([]int(nil), l.ids...)
	for _, id := range ids {
		if fn, ok := l.fns[id]; ok {
			fn()
		}
	}
}

func (l *listenerSet) len() int { return len(l.fns) }

func (l *listenerSet) clear() {
	l.ids = nil
	l.fns = nil
}
