package attendance

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/cmlabs-hris/dayflow/internal/domain/attendance"
	"github.com/cmlabs-hris/dayflow/internal/domain/auth"
	"github.com/cmlabs-hris/dayflow/internal/domain/employee"
	"github.com/cmlabs-hris/dayflow/internal/pkg/clock"
	"github.com/cmlabs-hris/dayflow/internal/pkg/recordstore"
	"github.com/cmlabs-hris/dayflow/internal/repository/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyEmployeeRepository fails the first failures SetStatus calls with err.
type flakyEmployeeRepository struct {
	employee.EmployeeRepository
	err      error
	failures int32
	calls    atomic.Int32
}

func (r *flakyEmployeeRepository) SetStatus(ctx context.Context, id string, status employee.Status) error {
	if r.calls.Add(1) <= r.failures {
		return fmt.Errorf("set status: %w", r.err)
	}
	return r.EmployeeRepository.SetStatus(ctx, id, status)
}

type attendanceTestEnv struct {
	service        *AttendanceServiceImpl
	employeeRepo   employee.EmployeeRepository
	attendanceRepo attendance.AttendanceRepository
	clock          *clock.Clock
}

func newAttendanceTestEnv(t *testing.T, wrap func(employee.EmployeeRepository) employee.EmployeeRepository) *attendanceTestEnv {
	t.Helper()
	backend, err := recordstore.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	rs := recordstore.New(backend)
	t.Cleanup(func() { rs.Close() })

	env := &attendanceTestEnv{
		employeeRepo:   store.NewEmployeeRepository(rs),
		attendanceRepo: store.NewAttendanceRepository(rs),
		clock:          clock.NewFixed(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), time.UTC),
	}
	for _, id := range []string{"EMP001", "EMP100", "EMP200"} {
		role := employee.RoleEmployee
		if id == "EMP001" {
			role = employee.RoleAdmin
		}
		_, err := env.employeeRepo.Create(context.Background(), employee.Employee{
			ID: id, Email: id + "@example.com", Role: role, Name: "Name " + id,
		})
		require.NoError(t, err)
	}

	employeeRepo := env.employeeRepo
	if wrap != nil {
		employeeRepo = wrap(employeeRepo)
	}
	env.service = NewAttendanceService(env.attendanceRepo, employeeRepo, env.clock).(*AttendanceServiceImpl)
	env.service.mirrorBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return env
}

func callerCtx(id string) context.Context {
	role := employee.RoleEmployee
	if id == "EMP001" {
		role = employee.RoleAdmin
	}
	return auth.WithCaller(context.Background(), auth.Caller{EmployeeID: id, Role: role, Name: "Name " + id})
}

func (env *attendanceTestEnv) storedStatus(t *testing.T, id string) employee.Status {
	t.Helper()
	e, err := env.employeeRepo.GetByID(context.Background(), id)
	require.NoError(t, err)
	return e.Status
}

func TestAttendanceService_CheckInCheckOut(t *testing.T) {
	env := newAttendanceTestEnv(t, nil)
	ctx := callerCtx("EMP100")

	_, err := env.service.CheckOut(ctx)
	assert.ErrorIs(t, err, attendance.ErrNoCheckInFound)

	resp, err := env.service.CheckIn(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", resp.Date)
	assert.Equal(t, "09:00:00", resp.CheckIn)
	assert.Equal(t, "Name EMP100", resp.EmployeeName)
	assert.Nil(t, resp.CheckOut)
	assert.Equal(t, employee.StatusPresent, env.storedStatus(t, "EMP100"))

	status, err := env.service.TodayStatus(ctx, "EMP100")
	require.NoError(t, err)
	assert.Equal(t, employee.StatusPresent, status)

	_, err = env.service.CheckIn(ctx)
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)

	env.clock.Set(time.Date(2025, 3, 10, 17, 30, 0, 0, time.UTC))
	resp, err = env.service.CheckOut(ctx)
	require.NoError(t, err)
	require.NotNil(t, resp.CheckOut)
	assert.Equal(t, "17:30:00", *resp.CheckOut)
	require.NotNil(t, resp.WorkingHours)
	assert.InDelta(t, 8.5, *resp.WorkingHours, 0.001)
	assert.Equal(t, employee.StatusAbsent, env.storedStatus(t, "EMP100"))

	status, err = env.service.TodayStatus(ctx, "EMP100")
	require.NoError(t, err)
	assert.Equal(t, employee.StatusAbsent, status)

	_, err = env.service.CheckOut(ctx)
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)
	_, err = env.service.CheckIn(ctx)
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)
}

func TestAttendanceService_RequiresKnownCaller(t *testing.T) {
	env := newAttendanceTestEnv(t, nil)

	_, err := env.service.CheckIn(context.Background())
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)

	_, err = env.service.CheckIn(callerCtx("EMP404"))
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestAttendanceService_ConcurrentCheckIns(t *testing.T) {
	env := newAttendanceTestEnv(t, nil)
	ctx := callerCtx("EMP100")

	const callers = 20
	var (
		wg        sync.WaitGroup
		start     = make(chan struct{})
		successes atomic.Int32
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := env.service.CheckIn(ctx)
			if err == nil {
				successes.Add(1)
				return
			}
			assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())

	records, err := env.attendanceRepo.ListByEmployee(context.Background(), "EMP100")
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, employee.StatusPresent, env.storedStatus(t, "EMP100"))
}

func TestAttendanceService_MirrorRetriesLockContention(t *testing.T) {
	var flaky *flakyEmployeeRepository
	env := newAttendanceTestEnv(t, func(repo employee.EmployeeRepository) employee.EmployeeRepository {
		flaky = &flakyEmployeeRepository{EmployeeRepository: repo, err: recordstore.ErrLockTimeout, failures: 2}
		return flaky
	})

	_, err := env.service.CheckIn(callerCtx("EMP100"))
	require.NoError(t, err)
	assert.Equal(t, int32(3), flaky.calls.Load())
	assert.Equal(t, employee.StatusPresent, env.storedStatus(t, "EMP100"))
}

func TestAttendanceService_MirrorFailureIsReconciled(t *testing.T) {
	var flaky *flakyEmployeeRepository
	env := newAttendanceTestEnv(t, func(repo employee.EmployeeRepository) employee.EmployeeRepository {
		flaky = &flakyEmployeeRepository{EmployeeRepository: repo, err: recordstore.ErrLockTimeout, failures: 100}
		return flaky
	})

	resp, err := env.service.CheckIn(callerCtx("EMP100"))
	require.NoError(t, err, "the check-in stands even when the mirror cannot be written")
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, int32(defaultMirrorTries), flaky.calls.Load())
	assert.Equal(t, employee.StatusAbsent, env.storedStatus(t, "EMP100"))

	status, err := env.service.TodayStatus(context.Background(), "EMP100")
	require.NoError(t, err)
	assert.Equal(t, employee.StatusPresent, status, "derived status is right before reconciliation")

	changed, err := env.service.ReconcileStatuses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	assert.Equal(t, employee.StatusPresent, env.storedStatus(t, "EMP100"))
}

func TestAttendanceService_MirrorDoesNotRetryStorageErrors(t *testing.T) {
	var flaky *flakyEmployeeRepository
	env := newAttendanceTestEnv(t, func(repo employee.EmployeeRepository) employee.EmployeeRepository {
		flaky = &flakyEmployeeRepository{EmployeeRepository: repo, err: recordstore.ErrStorageUnavailable, failures: 100}
		return flaky
	})

	_, err := env.service.CheckIn(callerCtx("EMP100"))
	require.NoError(t, err)
	assert.Equal(t, int32(1), flaky.calls.Load())
}

func TestAttendanceService_ReconcileAfterDayRollover(t *testing.T) {
	env := newAttendanceTestEnv(t, nil)
	ctx := callerCtx("EMP100")

	_, err := env.service.CheckIn(ctx)
	require.NoError(t, err)
	assert.Equal(t, employee.StatusPresent, env.storedStatus(t, "EMP100"))

	// Never checked out; the next morning the open record belongs to yesterday.
	env.clock.Set(time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC))

	status, err := env.service.TodayStatus(ctx, "EMP100")
	require.NoError(t, err)
	assert.Equal(t, employee.StatusAbsent, status)

	changed, err := env.service.ReconcileStatuses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
	assert.Equal(t, employee.StatusAbsent, env.storedStatus(t, "EMP100"))

	_, err = env.service.CheckOut(ctx)
	assert.ErrorIs(t, err, attendance.ErrNoCheckInFound, "yesterday's record cannot be closed today")

	resp, err := env.service.CheckIn(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-11", resp.Date)
}

// afterListAttendanceRepository runs afterList once, right after the first
// List returns its snapshot.
type afterListAttendanceRepository struct {
	attendance.AttendanceRepository
	once      sync.Once
	afterList func()
}

func (r *afterListAttendanceRepository) List(ctx context.Context) ([]attendance.Attendance, error) {
	records, err := r.AttendanceRepository.List(ctx)
	r.once.Do(r.afterList)
	return records, err
}

func TestAttendanceService_ReconcileKeepsCheckInLandingMidPass(t *testing.T) {
	env := newAttendanceTestEnv(t, nil)

	ledger := &afterListAttendanceRepository{AttendanceRepository: env.attendanceRepo}
	reconciler := NewAttendanceService(ledger, env.employeeRepo, env.clock)

	checkedIn := make(chan error, 1)
	ledger.afterList = func() {
		// The reconciler already holds a snapshot without this check-in.
		go func() {
			_, err := env.service.CheckIn(callerCtx("EMP200"))
			checkedIn <- err
		}()
		require.Eventually(t, func() bool {
			_, err := env.attendanceRepo.GetByEmployeeAndDate(context.Background(), "EMP200", "2025-03-10")
			return err == nil
		}, 2*time.Second, time.Millisecond)
	}

	_, err := reconciler.ReconcileStatuses(context.Background())
	require.NoError(t, err)
	require.NoError(t, <-checkedIn)

	assert.Equal(t, employee.StatusPresent, env.storedStatus(t, "EMP200"), "the stale pass must not revert the check-in")

	status, err := env.service.TodayStatus(callerCtx("EMP200"), "EMP200")
	require.NoError(t, err)
	assert.Equal(t, employee.StatusPresent, status)
}

func TestAttendanceService_List(t *testing.T) {
	env := newAttendanceTestEnv(t, nil)

	_, err := env.service.CheckIn(callerCtx("EMP100"))
	require.NoError(t, err)
	_, err = env.service.CheckIn(callerCtx("EMP200"))
	require.NoError(t, err)

	mine, err := env.service.List(callerCtx("EMP100"))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "EMP100", mine[0].EmployeeID)

	all, err := env.service.List(callerCtx("EMP001"))
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
