package sqlx

import "testing"

func TestIsSelect(t *testing.T) {
	cases := []struct {
		q    string
		want bool
	}{
		{"SELECT 1", true},
		{"  select * from users", true},
		{"\n\tSeLeCt id FROM t;", true},
		{"UPDATE t SET a = 1", false},
		{"WITH x AS (SELECT 1) SELECT * FROM x", false},
		{"", false},
	}
	for _, c := range cases {
		if got := IsSelect(c.q); got != c.want {
			t.Errorf("IsSelect(%q) = %v, want %v", c.q, got, c.want)
		}
	}
}

func TestTrimStatement(t *testing.T) {
	cases := []struct{ in, want string }{
		{"SELECT * FROM users;", "SELECT * FROM users"},
		{"  SELECT 1 ;  ", "SELECT 1"},
		{"SELECT 1;;", "SELECT 1;"},
		{"SELECT 1", "SELECT 1"},
	}
	for _, c := range cases {
		if got := TrimStatement(c.in); got != c.want {
			t.Errorf("TrimStatement(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCountQuery(t *testing.T) {
	got := CountQuery("SELECT * FROM users")
	want := "SELECT COUNT(*) AS total FROM (SELECT * FROM users) AS total_count"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPagingClauses(t *testing.T) {
	if got, want := LimitOffset("SELECT * FROM users", 50, 100), "SELECT * FROM users LIMIT 50 OFFSET 100"; got != want {
		t.Errorf("LimitOffset = %q, want %q", got, want)
	}
	if got, want := OffsetFetch("SELECT * FROM users", 50, 100), "SELECT * FROM users ORDER BY id OFFSET 100 ROWS FETCH NEXT 50 ROWS ONLY"; got != want {
		t.Errorf("OffsetFetch = %q, want %q", got, want)
	}
}

func TestReturnsRows(t *testing.T) {
	cases := []struct {
		q    string
		want bool
	}{
		{"SHOW TABLES", true},
		{"pragma table_info(users)", true},
		{"WITH x AS (SELECT 1) SELECT * FROM x", true},
		{"EXEC sp_who", true},
		{"-- note\nEXPLAIN SELECT 1", true},
		{"/* hint */ describe users", true},
		{"(SELECT 1) UNION (SELECT 2)", true},
		{"INSERT INTO t VALUES (1)", false},
		{"UPDATE t SET a = 1", false},
		{"DELETE FROM t", false},
		{"INSERT INTO t (name) VALUES ('cy') RETURNING id, name", true},
		{"delete from t where id = 1 returning *", true},
		{"UPDATE t SET a = 1 OUTPUT inserted.a", true},
		{"UPDATE t SET output_dir = 'x'", false},
		{"CREATE TABLE t (id INT)", false},
		{"", false},
	}
	for _, c := range cases {
		if got := ReturnsRows(c.q); got != c.want {
			t.Errorf("ReturnsRows(%q) = %v, want %v", c.q, got, c.want)
		}
	}
}

func TestLeadingKeyword(t *testing.T) {
	cases := []struct {
		q    string
		want string
	}{
		{"  Update t", "update"},
		{"--x\n--y\nshow x", "show"},
		{"/* unterminated", ""},
		{"values(1)", "values"},
	}
	for _, c := range cases {
		if got := LeadingKeyword(c.q); got != c.want {
			t.Errorf("LeadingKeyword(%q) = %q, want %q", c.q, got, c.want)
		}
	}
}
