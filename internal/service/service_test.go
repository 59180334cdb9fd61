package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabassumkhan-ss/MSTCbotnew/internal/model"
	"github.com/tabassumkhan-ss/MSTCbotnew/internal/repository"
	"github.com/tabassumkhan-ss/MSTCbotnew/internal/repository/testutil"
)

type notification struct {
	chatID int64
	level  int
	amount string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) SendDepositCredited(chatID int64, amount, musd, mstc decimal.Decimal) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{chatID: chatID, amount: amount.StringFixed(2)})
	return nil
}

func (n *recordingNotifier) SendReferralIncome(chatID int64, level int, amount decimal.Decimal) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{chatID: chatID, level: level, amount: amount.StringFixed(2)})
	return fmt.Errorf("telegram is down")
}

func deposit(userID int64, amount, tag string) model.DepositRequest {
	return model.DepositRequest{UserID: &userID, Amount: d(amount), TxTag: tag}
}

func mustUser(t *testing.T, repo *repository.Repository, id int64) *model.User {
	t.Helper()
	user, err := repo.GetUser(context.Background(), id)
	require.NoError(t, err)
	return user
}

// assertLedgerBalanced checks every balance equals the sum of its transactions.
func assertLedgerBalanced(t *testing.T, repo *repository.Repository) {
	t.Helper()
	ctx := context.Background()

	ids, err := repo.ListUserIDs(ctx)
	require.NoError(t, err)
	for _, id := range ids {
		user := mustUser(t, repo, id)
		txs, err := repo.ListTransactions(ctx, id, 1000, 0)
		require.NoError(t, err)

		musd, mstc := decimal.Zero, decimal.Zero
		for _, tx := range txs {
			if tx.Currency == model.CurrencyMSTC {
				mstc = mstc.Add(tx.Amount)
			} else {
				musd = musd.Add(tx.Amount)
			}
		}
		assert.True(t, user.BalanceMUSD.Equal(musd), "user %d MUSD %s != %s", id, user.BalanceMUSD, musd)
		assert.True(t, user.BalanceMSTC.Equal(mstc), "user %d MSTC %s != %s", id, user.BalanceMSTC, mstc)
	}
}

func TestDeposit_DistributesOverChain(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := testDB.Repo
	ctx := context.Background()

	testutil.CreateChain(t, repo, 1, 2, 3, 4)

	notifier := &recordingNotifier{}
	svc := NewDepositService(repo)
	svc.SetNotifier(notifier)

	result, err := svc.Deposit(ctx, deposit(4, "20", "TEST_DEPLOY_1-1"))
	require.NoError(t, err)

	assert.Equal(t, "6.00", result.MSTC.StringFixed(2))
	assert.Equal(t, "14.00", result.MUSD.StringFixed(2))
	assert.True(t, result.Activated)

	require.Len(t, result.ReferralDist, 4)
	for i, want := range []struct {
		to     int64
		amount string
	}{{3, "1.00"}, {2, "0.60"}, {1, "0.20"}} {
		share := result.ReferralDist[i]
		assert.Equal(t, i+1, share.Level)
		assert.Equal(t, want.to, *share.ToUserID)
		assert.Equal(t, want.amount, share.Amount.StringFixed(2))
	}
	assert.Nil(t, result.ReferralDist[3].ToUserID)
	assert.Equal(t, "18.20", result.ReferralDist[3].Amount.StringFixed(2))

	depositor := mustUser(t, repo, 4)
	assert.Equal(t, "14.00", depositor.BalanceMUSD.StringFixed(2))
	assert.Equal(t, "6.00", depositor.BalanceMSTC.StringFixed(2))
	assert.True(t, depositor.SelfActivated)

	for id, musd := range map[int64]string{3: "1.00", 2: "0.60", 1: "0.20"} {
		user := mustUser(t, repo, id)
		assert.Equal(t, musd, user.BalanceMUSD.StringFixed(2), "user %d", id)
		assert.Equal(t, "20.00", user.TotalTeamBusiness.StringFixed(2), "user %d", id)
	}
	assert.Equal(t, 1, mustUser(t, repo, 3).ActiveOriginCount)
	assert.Equal(t, 0, mustUser(t, repo, 2).ActiveOriginCount)
	assert.True(t, mustUser(t, repo, 4).TotalTeamBusiness.IsZero())

	events, err := repo.ListReferralEvents(ctx, 4, model.ReferralDirectionOut, 10, 0)
	require.NoError(t, err)
	assert.Len(t, events, 4)

	stats, err := repo.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "18.20", stats.CompanyPoolTotal.StringFixed(2))
	assert.Equal(t, "20.00", stats.TotalDeposited.StringFixed(2))

	svc.Wait()
	assert.Equal(t, []notification{
		{chatID: 4, amount: "20.00"},
		{chatID: 3, level: 1, amount: "1.00"},
		{chatID: 2, level: 2, amount: "0.60"},
		{chatID: 1, level: 3, amount: "0.20"},
	}, notifier.sent)

	assertLedgerBalanced(t, repo)
}

type blockingNotifier struct {
	release chan struct{}
	sent    atomic.Int32
}

func (n *blockingNotifier) SendDepositCredited(int64, decimal.Decimal, decimal.Decimal, decimal.Decimal) error {
	<-n.release
	n.sent.Add(1)
	return nil
}

func (n *blockingNotifier) SendReferralIncome(int64, int, decimal.Decimal) error {
	<-n.release
	n.sent.Add(1)
	return nil
}

func TestDeposit_ReturnsBeforeNotificationsAreSent(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := testDB.Repo
	ctx := context.Background()

	testutil.CreateChain(t, repo, 1, 2)
	notifier := &blockingNotifier{release: make(chan struct{})}
	svc := NewDepositService(repo)
	svc.SetNotifier(notifier)

	_, err := svc.Deposit(ctx, deposit(2, "20", "SLOW-1"))
	require.NoError(t, err)
	assert.Zero(t, notifier.sent.Load())
	assert.Equal(t, "14.00", mustUser(t, repo, 2).BalanceMUSD.StringFixed(2))

	close(notifier.release)
	svc.Wait()
	assert.EqualValues(t, 2, notifier.sent.Load())
}

func TestDeposit_DuplicateTagChangesNothing(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := testDB.Repo
	ctx := context.Background()

	testutil.CreateChain(t, repo, 1, 2)
	svc := NewDepositService(repo)

	_, err := svc.Deposit(ctx, deposit(2, "20", "DUP-1"))
	require.NoError(t, err)

	before := mustUser(t, repo, 1)
	_, err = svc.Deposit(ctx, deposit(2, "30", "DUP-1"))
	assert.ErrorIs(t, err, ErrDuplicateDeposit)

	after := mustUser(t, repo, 1)
	assert.True(t, before.BalanceMUSD.Equal(after.BalanceMUSD))
	assert.True(t, before.TotalTeamBusiness.Equal(after.TotalTeamBusiness))

	txs, err := repo.ListTransactions(ctx, 2, 10, 0)
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}

func TestDeposit_ConcurrentSameTag(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := testDB.Repo
	ctx := context.Background()

	testutil.CreateChain(t, repo, 1, 2)
	svc := NewDepositService(repo)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Deposit(ctx, deposit(2, "20", "RACE-1")); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, "14.00", mustUser(t, repo, 2).BalanceMUSD.StringFixed(2))
	assert.Equal(t, "20.00", mustUser(t, repo, 1).TotalTeamBusiness.StringFixed(2))
}

func TestDeposit_Validation(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := testDB.Repo
	ctx := context.Background()

	_, err := repo.CreateUser(ctx, &model.NewUser{ID: 10, TelegramID: 9010, Role: model.RoleUser})
	require.NoError(t, err)

	svc := NewDepositService(repo)

	_, err = svc.Deposit(ctx, deposit(10, "10", "V-1"))
	assert.ErrorIs(t, err, ErrMinDeposit)

	_, err = svc.Deposit(ctx, deposit(10, "25", "V-1"))
	assert.ErrorIs(t, err, ErrInvalidStep)

	_, err = svc.Deposit(ctx, deposit(10, "20", "  "))
	assert.ErrorIs(t, err, ErrMissingTxTag)

	_, err = svc.Deposit(ctx, model.DepositRequest{Amount: d("20"), TxTag: "V-1"})
	assert.ErrorIs(t, err, ErrMissingIdentifier)

	_, err = svc.Deposit(ctx, deposit(404, "20", "V-1"))
	assert.ErrorIs(t, err, ErrUserNotFound)

	// telegram_id resolves through users.telegram_id, not the primary key
	tgID := int64(9010)
	result, err := svc.Deposit(ctx, model.DepositRequest{TelegramID: &tgID, Amount: d("20"), TxTag: "V-2"})
	require.NoError(t, err)
	assert.EqualValues(t, 10, result.UserID)
	require.Len(t, result.ReferralDist, 1)
	assert.Equal(t, "20.00", result.ReferralDist[0].Amount.StringFixed(2))

	wrongID := int64(10)
	_, err = svc.Deposit(ctx, model.DepositRequest{TelegramID: &wrongID, Amount: d("20"), TxTag: "V-3"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeposit_SecondDepositDoesNotReactivate(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := testDB.Repo
	ctx := context.Background()

	testutil.CreateChain(t, repo, 1, 2)
	svc := NewDepositService(repo)

	first, err := svc.Deposit(ctx, deposit(2, "20", "A-1"))
	require.NoError(t, err)
	assert.True(t, first.Activated)

	second, err := svc.Deposit(ctx, deposit(2, "50", "A-2"))
	require.NoError(t, err)
	assert.False(t, second.Activated)

	parent := mustUser(t, repo, 1)
	assert.Equal(t, 1, parent.ActiveOriginCount)
	assert.Equal(t, "70.00", parent.TotalTeamBusiness.StringFixed(2))
	assert.Equal(t, "3.50", parent.BalanceMUSD.StringFixed(2))
}

func TestDeposit_LifeChangerCrossesThresholdWithDeposit(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := testDB.Repo
	ctx := context.Background()

	testutil.CreateChain(t, repo, 1)
	for id := int64(100); id < 110; id++ {
		_, err := repo.CreateUser(ctx, testutil.NewTestUser(id, testutil.Ptr[int64](1)))
		require.NoError(t, err)
	}

	svc := NewDepositService(repo)
	for id := int64(100); id < 109; id++ {
		_, err := svc.Deposit(ctx, deposit(id, "100", fmt.Sprintf("LC-%d", id)))
		require.NoError(t, err)
	}

	parent := mustUser(t, repo, 1)
	assert.Equal(t, 9, parent.ActiveOriginCount)
	assert.Equal(t, "900.00", parent.TotalTeamBusiness.StringFixed(2))

	// The tenth first deposit brings both thresholds within reach.
	result, err := svc.Deposit(ctx, deposit(109, "100", "LC-109"))
	require.NoError(t, err)
	assert.Equal(t, "10.00", result.ReferralDist[0].Amount.StringFixed(2))
	assert.Equal(t, "0.1", result.ReferralDist[0].Percent.String())

	assertLedgerBalanced(t, repo)
}

func TestTeamService_RecomputeMatchesIncremental(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := testDB.Repo
	ctx := context.Background()

	testutil.CreateChain(t, repo, 1, 2, 3)
	_, err := repo.CreateUser(ctx, testutil.NewTestUser(4, testutil.Ptr[int64](2)))
	require.NoError(t, err)

	deposits := NewDepositService(repo)
	for i, req := range []model.DepositRequest{
		deposit(3, "20", "R-1"),
		deposit(4, "50", "R-2"),
		deposit(3, "30", "R-3"),
		deposit(2, "40", "R-4"),
	} {
		_, err := deposits.Deposit(ctx, req)
		require.NoError(t, err, "deposit %d", i)
	}

	incremental := map[int64]*model.User{}
	for _, id := range []int64{1, 2, 3, 4} {
		incremental[id] = mustUser(t, repo, id)
	}
	assert.Equal(t, "140.00", incremental[1].TotalTeamBusiness.StringFixed(2))
	assert.Equal(t, "100.00", incremental[2].TotalTeamBusiness.StringFixed(2))

	team := NewTeamService(repo)
	snaps, err := team.RecomputeAll(ctx)
	require.NoError(t, err)
	assert.Len(t, snaps, 5, "includes the seeded company user")

	for id, before := range incremental {
		after := mustUser(t, repo, id)
		assert.True(t, before.TotalTeamBusiness.Equal(after.TotalTeamBusiness), "user %d team business", id)
		assert.Equal(t, before.ActiveOriginCount, after.ActiveOriginCount, "user %d active origins", id)
	}

	total, err := team.RecomputeTeamBusiness(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "100.00", total.StringFixed(2))

	count, err := team.RecomputeActiveOrigins(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = team.RecomputeTeamBusiness(ctx, 404)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestLedgerService_RecordTransaction(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := testDB.Repo
	ctx := context.Background()

	testutil.CreateChain(t, repo, 1)
	svc := NewLedgerService(repo)

	tx, err := svc.RecordTransaction(ctx, RecordTransactionInput{UserID: 1, Amount: d("50"), Currency: model.CurrencyMUSD})
	require.NoError(t, err)
	assert.Equal(t, model.TransactionTypeManual, tx.Type)

	_, err = svc.RecordTransaction(ctx, RecordTransactionInput{UserID: 1, Amount: d("-20"), Currency: model.CurrencyMUSD, Type: model.TransactionTypeWithdrawal})
	require.NoError(t, err)

	_, err = svc.RecordTransaction(ctx, RecordTransactionInput{UserID: 1, Amount: d("-30.01"), Currency: model.CurrencyMUSD, Type: model.TransactionTypeWithdrawal})
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	_, err = svc.RecordTransaction(ctx, RecordTransactionInput{UserID: 1, Amount: d("-1"), Currency: model.CurrencyMSTC})
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	_, err = svc.RecordTransaction(ctx, RecordTransactionInput{UserID: 1, Amount: d("5"), Currency: "BTC"})
	assert.ErrorIs(t, err, ErrInvalidCurrency)

	for _, amount := range []string{"0", "0.004", "-0.004"} {
		_, err = svc.RecordTransaction(ctx, RecordTransactionInput{UserID: 1, Amount: d(amount), Currency: model.CurrencyMUSD})
		assert.ErrorIs(t, err, ErrInvalidAmount, amount)
	}

	_, err = svc.RecordTransaction(ctx, RecordTransactionInput{UserID: 404, Amount: d("5"), Currency: model.CurrencyMUSD})
	assert.ErrorIs(t, err, ErrUserNotFound)

	user := mustUser(t, repo, 1)
	assert.Equal(t, "30.00", user.BalanceMUSD.StringFixed(2))

	txs, err := svc.ListTransactions(ctx, 1, 0, 0)
	require.NoError(t, err)
	assert.Len(t, txs, 2)

	assertLedgerBalanced(t, repo)
}

func TestLedgerService_RecordReferralEvent(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := testDB.Repo
	ctx := context.Background()

	testutil.CreateChain(t, repo, 1, 2)
	svc := NewLedgerService(repo)

	note := "manual correction"
	e, err := svc.RecordReferralEvent(ctx, RecordReferralEventInput{FromUser: 2, ToUser: testutil.Ptr[int64](1), Amount: d("2.5"), Note: &note})
	require.NoError(t, err)
	assert.NotZero(t, e.ID)

	_, err = svc.RecordReferralEvent(ctx, RecordReferralEventInput{FromUser: 2, Amount: d("1")})
	require.NoError(t, err)

	_, err = svc.RecordReferralEvent(ctx, RecordReferralEventInput{FromUser: 2, ToUser: testutil.Ptr[int64](404), Amount: d("1")})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.RecordReferralEvent(ctx, RecordReferralEventInput{FromUser: 404, Amount: d("1")})
	assert.ErrorIs(t, err, ErrUserNotFound)

	for _, amount := range []string{"0", "0.001", "-1"} {
		_, err = svc.RecordReferralEvent(ctx, RecordReferralEventInput{FromUser: 2, Amount: d(amount)})
		assert.ErrorIs(t, err, ErrInvalidAmount, amount)
	}

	assert.True(t, mustUser(t, repo, 1).BalanceMUSD.IsZero(), "events never move balances")

	in, err := svc.ListReferralEvents(ctx, 1, model.ReferralDirectionIn, 0, 0)
	require.NoError(t, err)
	assert.Len(t, in, 1)
}

func TestUserService(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := testDB.Repo
	ctx := context.Background()

	svc := NewUserService(repo)

	t.Run("create with defaults", func(t *testing.T) {
		user, err := svc.CreateUser(ctx, model.NewUser{ID: 1})
		require.NoError(t, err)
		assert.EqualValues(t, 1, user.TelegramID)
		assert.Equal(t, model.RoleUser, user.Role)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := svc.CreateUser(ctx, model.NewUser{ID: 0})
		assert.ErrorIs(t, err, ErrInvalidUserID)

		_, err = svc.CreateUser(ctx, model.NewUser{ID: 2, Role: "wizard"})
		assert.ErrorIs(t, err, ErrInvalidRole)

		_, err = svc.CreateUser(ctx, model.NewUser{ID: 2, ReferrerID: testutil.Ptr[int64](2)})
		assert.ErrorIs(t, err, ErrInvalidReferrer)

		_, err = svc.CreateUser(ctx, model.NewUser{ID: 2, ReferrerID: testutil.Ptr[int64](404)})
		assert.ErrorIs(t, err, ErrInvalidReferrer)

		_, err = svc.CreateUser(ctx, model.NewUser{ID: 1})
		assert.ErrorIs(t, err, ErrUserExists)
	})

	t.Run("get or create with ref code", func(t *testing.T) {
		user, created, err := svc.GetOrCreateUser(ctx, TelegramUser{ID: 3}, "ref_1")
		require.NoError(t, err)
		assert.True(t, created)
		require.NotNil(t, user.ReferrerID)
		assert.EqualValues(t, 1, *user.ReferrerID)

		again, created, err := svc.GetOrCreateUser(ctx, TelegramUser{ID: 3}, "")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, user.ID, again.ID)
	})

	t.Run("unknown ref code is ignored", func(t *testing.T) {
		user, created, err := svc.GetOrCreateUser(ctx, TelegramUser{ID: 4}, "404")
		require.NoError(t, err)
		assert.True(t, created)
		assert.Nil(t, user.ReferrerID)
	})

	t.Run("existing user gets referrer bound once", func(t *testing.T) {
		user, _, err := svc.GetOrCreateUser(ctx, TelegramUser{ID: 4}, "3")
		require.NoError(t, err)
		require.NotNil(t, user.ReferrerID)
		assert.EqualValues(t, 3, *user.ReferrerID)

		user, _, err = svc.GetOrCreateUser(ctx, TelegramUser{ID: 4}, "1")
		require.NoError(t, err)
		assert.EqualValues(t, 3, *user.ReferrerID)
	})

	t.Run("referrer cannot be a descendant", func(t *testing.T) {
		// 1 has no referrer; 4 sits below it (1 -> 3 -> 4).
		user, _, err := svc.GetOrCreateUser(ctx, TelegramUser{ID: 1}, "4")
		require.NoError(t, err)
		assert.Nil(t, user.ReferrerID)
	})

	t.Run("children", func(t *testing.T) {
		children, err := svc.ListChildren(ctx, 1)
		require.NoError(t, err)
		require.Len(t, children, 1)
		assert.EqualValues(t, 3, children[0].ID)

		_, err = svc.ListChildren(ctx, 404)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}
