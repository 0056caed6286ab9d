package pagination

import "testing"

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	p := Paginate(items, 1, 2)
	if len(p.Items) != 2 || p.Items[0] != 1 {
		t.Fatalf("page 1: %+v", p)
	}
	if !p.HasNext || p.HasPrev {
		t.Fatalf("page 1 flags: %+v", p)
	}
	if p.Total != 5 {
		t.Fatalf("total = %d", p.Total)
	}

	p = Paginate(items, 3, 2)
	if len(p.Items) != 1 || p.Items[0] != 5 {
		t.Fatalf("page 3: %+v", p)
	}
	if p.HasNext || !p.HasPrev {
		t.Fatalf("page 3 flags: %+v", p)
	}
}

func TestPaginate_Defaults(t *testing.T) {
	items := make([]int, 15)

	p := Paginate(items, 0, 0)
	if p.Page != 1 || p.PageSize != 10 {
		t.Fatalf("defaults: page=%d size=%d", p.Page, p.PageSize)
	}
	if len(p.Items) != 10 {
		t.Fatalf("default page size slice: %d", len(p.Items))
	}
}

func TestPaginate_BeyondEnd(t *testing.T) {
	p := Paginate([]int{1, 2}, 9, 10)
	if len(p.Items) != 0 {
		t.Fatalf("beyond-end page must be empty: %+v", p)
	}
	if p.HasNext {
		t.Fatalf("beyond-end page must not have next")
	}
}
