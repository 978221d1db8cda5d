package store

import "testing"

func TestBuild_Empty(t *testing.T) {
	q := Build()
	if len(q.Conditions()) != 0 {
		t.Errorf("expected no conditions, got %d", len(q.Conditions()))
	}
	if q.LimitValue() != 0 {
		t.Errorf("expected limit 0, got %d", q.LimitValue())
	}
}

func TestBuild_Conditions(t *testing.T) {
	q := Build(
		WithCondition("owner_id", "u1"),
		WithConditionIn("slot", []string{"top", "bottom"}),
	)

	conds := q.Conditions()
	if len(conds) != 2 {
		t.Fatalf("expected 2 conditions, got %d", len(conds))
	}
	if conds[0].Field() != "owner_id" || conds[0].In() {
		t.Errorf("unexpected first condition: %s", conds[0])
	}
	if conds[1].Field() != "slot" || !conds[1].In() {
		t.Errorf("unexpected second condition: %s", conds[1])
	}
}

func TestBuild_Wheres(t *testing.T) {
	q := Build(WithWhere("embedding IS NOT NULL"))
	wheres := q.Wheres()
	if len(wheres) != 1 {
		t.Fatalf("expected 1 where, got %d", len(wheres))
	}
	if wheres[0].Clause() != "embedding IS NOT NULL" {
		t.Errorf("unexpected clause: %s", wheres[0].Clause())
	}
	if len(wheres[0].Args()) != 0 {
		t.Errorf("expected no args, got %v", wheres[0].Args())
	}
}

func TestBuild_OrderAndPagination(t *testing.T) {
	q := Build(
		WithOrderDesc("created_at"),
		WithOrderAsc("id"),
		WithLimit(25),
		WithOffset(50),
	)

	orders := q.Orders()
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	if orders[0].Field() != "created_at" || orders[0].Ascending() {
		t.Error("expected created_at DESC first")
	}
	if orders[1].Field() != "id" || !orders[1].Ascending() {
		t.Error("expected id ASC second")
	}
	if q.LimitValue() != 25 || q.OffsetValue() != 50 {
		t.Errorf("unexpected pagination: limit=%d offset=%d", q.LimitValue(), q.OffsetValue())
	}
}

func TestWithPagination(t *testing.T) {
	q := Build(WithPagination(10, 20)...)
	if q.LimitValue() != 10 || q.OffsetValue() != 20 {
		t.Errorf("unexpected pagination: limit=%d offset=%d", q.LimitValue(), q.OffsetValue())
	}
}
