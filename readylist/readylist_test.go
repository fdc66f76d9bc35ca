package readylist_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ttasched/ddg"
	"github.com/sarchlab/ttasched/readylist"
)

var _ = Describe("List", func() {
	var (
		g    *ddg.Graph
		list *readylist.List
	)

	// group adds a group whose single move gets the next move ID.
	group := func(name string) ddg.GroupID {
		id := g.AddGroup(name)
		g.AddMove(id, ddg.Register("RF", 1), ddg.Register("RF", 2), nil)
		return id
	}

	drain := func() []ddg.GroupID {
		var out []ddg.GroupID
		for list.Len() > 0 {
			id, ok := list.Pop()
			Expect(ok).To(BeTrue())
			out = append(out, id)
		}
		return out
	}

	BeforeEach(func() {
		g = ddg.New()
		list = readylist.New(g)
	})

	It("should be empty at first", func() {
		_, ok := list.Pop()
		Expect(ok).To(BeFalse())
		_, ok = list.Peek()
		Expect(ok).To(BeFalse())
	})

	It("should pop the smaller first move first", func() {
		a, b, c := group("a"), group("b"), group("c")
		list.Push(c)
		list.Push(a)
		list.Push(b)

		top, ok := list.Peek()
		Expect(ok).To(BeTrue())
		Expect(top).To(Equal(a))
		Expect(drain()).To(Equal([]ddg.GroupID{a, b, c}))
	})

	It("should drain scheduled groups first", func() {
		a, b, c := group("a"), group("b"), group("c")
		g.Move(g.Group(c).Moves[0]).Bus = 0
		g.Move(g.Group(c).Moves[0]).Cycle = 5

		list.Push(a)
		list.Push(b)
		list.Push(c)
		Expect(drain()).To(Equal([]ddg.GroupID{c, a, b}))
	})

	It("should order two scheduled groups by first move", func() {
		a, b, c := group("a"), group("b"), group("c")
		for _, id := range []ddg.GroupID{b, c} {
			mv := g.Move(g.Group(id).Moves[0])
			mv.Bus, mv.Cycle = 0, 1
		}

		list.Push(c)
		list.Push(a)
		list.Push(b)
		Expect(drain()).To(Equal([]ddg.GroupID{b, c, a}))
	})

	It("should reorder after Fix", func() {
		a, b := group("a"), group("b")
		list.Push(a)
		list.Push(b)

		mv := g.Move(g.Group(b).Moves[0])
		mv.Bus, mv.Cycle = 1, 0
		list.Fix()

		Expect(drain()).To(Equal([]ddg.GroupID{b, a}))
	})

	It("should keep duplicates", func() {
		a := group("a")
		list.Push(a)
		list.Push(a)
		Expect(list.Len()).To(Equal(2))
	})
})
