package ledgerquery

import (
	"testing"

	"synnergy-ledger/internal/address"
	"synnergy-ledger/internal/codec"
	"synnergy-ledger/internal/ledgererr"
	"synnergy-ledger/internal/ledgerstore"
)

func testAddr(n byte) address.Address {
	var a address.Address
	a[0] = byte(address.CategoryPublicKey)
	a[address.Size-1] = n
	return a
}

const symFBT = "FBT"

func newTestModule(t *testing.T) (*Module, address.Address, address.Address) {
	t.Helper()
	symAddr := testAddr(0xFE)
	a, b := testAddr(0x01), testAddr(0x02)

	symbols := map[address.Address]string{symAddr: symFBT}
	initial := map[address.Address]map[string]codec.TokenAmount{
		a: {symFBT: codec.AmountFromUint64(1000)},
	}
	store, err := ledgerstore.New(symbols, initial, "", false, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	return New(store), a, b
}

func TestInfoReturnsSymbolsAndHash(t *testing.T) {
	m, _, _ := newTestModule(t)
	info := m.Info()
	if len(info.Symbols) != 1 {
		t.Fatalf("expected 1 symbol, got %d", len(info.Symbols))
	}
	if info.LocalNames[info.Symbols[0]] != symFBT {
		t.Fatalf("expected local name %q, got %q", symFBT, info.LocalNames[info.Symbols[0]])
	}
}

func TestBalanceDefaultsAccountToSender(t *testing.T) {
	m, a, _ := newTestModule(t)
	res, err := m.Balance(a, BalanceArgs{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Balances[symFBT].String() != "1000" {
		t.Fatalf("expected 1000, got %s", res.Balances[symFBT].String())
	}
}

func TestSendAuthorizedWhenFromMatchesSender(t *testing.T) {
	m, a, b := newTestModule(t)
	if err := m.Send(a, SendArgs{To: b, Symbol: symFBT, Amount: codec.AmountFromUint64(100)}); err != nil {
		t.Fatalf("send: %v", err)
	}
	res, err := m.Balance(a, BalanceArgs{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Balances[symFBT].String() != "900" {
		t.Fatalf("expected 900, got %s", res.Balances[symFBT].String())
	}
}

func TestSendUnauthorizedWhenFromIsSomeoneElse(t *testing.T) {
	m, a, b := newTestModule(t)
	c := testAddr(0x03)
	err := m.Send(a, SendArgs{From: &b, To: c, Symbol: symFBT, Amount: codec.AmountFromUint64(100)})
	if err == nil {
		t.Fatal("expected Unauthorized")
	}
	le, ok := err.(*ledgererr.Error)
	if !ok || le.Code != ledgererr.CodeUnauthorized {
		t.Fatalf("expected CodeUnauthorized, got %v", err)
	}

	balB, _ := m.Balance(a, BalanceArgs{Account: &b})
	if !balB.Balances[symFBT].IsZero() {
		t.Fatal("expected no mutation after unauthorized send")
	}
}

func TestTransactionsReportsCount(t *testing.T) {
	m, a, b := newTestModule(t)
	if err := m.Send(a, SendArgs{To: b, Symbol: symFBT, Amount: codec.AmountFromUint64(1)}); err != nil {
		t.Fatal(err)
	}
	res := m.Transactions()
	if res.NbTransactions != 1 {
		t.Fatalf("expected 1, got %d", res.NbTransactions)
	}
}

func TestListClampsCountAndFiltersBySymbol(t *testing.T) {
	m, a, b := newTestModule(t)
	for i := 0; i < 5; i++ {
		if err := m.Send(a, SendArgs{To: b, Symbol: symFBT, Amount: codec.AmountFromUint64(1)}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := m.store.Commit(); err != nil {
		t.Fatal(err)
	}

	count := 3
	symbol := symFBT
	res, err := m.List(ListArgs{Count: &count, Filter: ListFilter{Symbol: &symbol}})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Transactions) != 3 {
		t.Fatalf("expected count clamp to 3, got %d", len(res.Transactions))
	}
	if res.NbTransactions != 5 {
		t.Fatalf("expected nb_transactions 5, got %d", res.NbTransactions)
	}
}

func TestListFiltersByAccountAndKind(t *testing.T) {
	m, a, b := newTestModule(t)
	c := testAddr(0x03)
	if err := m.Send(a, SendArgs{To: b, Symbol: symFBT, Amount: codec.AmountFromUint64(1)}); err != nil {
		t.Fatal(err)
	}
	if err := m.Send(a, SendArgs{To: c, Symbol: symFBT, Amount: codec.AmountFromUint64(1)}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.store.Commit(); err != nil {
		t.Fatal(err)
	}

	res, err := m.List(ListArgs{Filter: ListFilter{Account: []address.Address{b}}})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Transactions) != 1 {
		t.Fatalf("expected 1 transaction about b, got %d", len(res.Transactions))
	}
	if !res.Transactions[0].IsAbout(b) {
		t.Fatal("returned transaction is not about b")
	}

	kindRes, err := m.List(ListArgs{Filter: ListFilter{Kind: []codec.TransactionKind{codec.KindMint}}})
	if err != nil {
		t.Fatal(err)
	}
	if len(kindRes.Transactions) != 0 {
		t.Fatalf("expected 0 Mint transactions, got %d", len(kindRes.Transactions))
	}
}

func TestDateRangeContainsIsInclusive(t *testing.T) {
	start := codec.Timestamp(10)
	end := codec.Timestamp(20)
	d := DateRange{Start: &start, End: &end}
	if !d.Contains(10) || !d.Contains(20) || !d.Contains(15) {
		t.Fatal("expected inclusive bounds to match")
	}
	if d.Contains(9) || d.Contains(21) {
		t.Fatal("expected values outside the range to be rejected")
	}
}
