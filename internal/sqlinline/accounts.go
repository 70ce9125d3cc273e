package sqlinline

// QUpsertAccount creates the default account when absent and returns the
// current row either way. A concurrent creator that commits after this
// statement's snapshot yields zero rows; callers re-read with QSelectAccount.
const QUpsertAccount = `--sql 6b9523cd-c8b9-43dc-a68e-948bd2232225
with inserted as (
    insert into api_accounts (user_id, plan, status, balance, total_spent, updated_at)
    values ($1::text, 'free', 'active', $2::numeric, 0, now())
    on conflict (user_id) do nothing
    returning user_id, plan, status, balance, total_spent, expires_at, last_used_at, updated_at
)
select user_id, plan, status, balance, total_spent, expires_at, last_used_at, updated_at
from inserted
union all
select user_id, plan, status, balance, total_spent, expires_at, last_used_at, updated_at
from api_accounts
where user_id = $1::text
  and not exists (select 1 from inserted)
limit 1;
`

const QSelectAccount = `--sql a1fd37eb-e013-4ba7-8e15-cd621518c1f7
select user_id, plan, status, balance, total_spent, expires_at, last_used_at, updated_at
from api_accounts
where user_id = $1::text
limit 1;
`

// QDebitAccount decrements the balance only when it covers the amount and
// appends the usage row in the same statement. No row back means the
// predicate failed and nothing was written.
const QDebitAccount = `--sql f0c5dbc6-0785-4913-bedd-ddecf0ebd0af
with debited as (
    update api_accounts
    set balance      = balance - $2::numeric,
        total_spent  = total_spent + $2::numeric,
        last_used_at = now(),
        updated_at   = now()
    where user_id = $1::text
      and balance >= $2::numeric
    returning user_id, balance
),
recorded as (
    insert into api_usage (id, user_id, model, cost, created_at)
    select $3::uuid, d.user_id, $4::text, $2::numeric, now()
    from debited d
    returning id
)
select d.balance, r.id::text
from debited d
cross join recorded r;
`

// QUpdateAccountPlan changes the subscription fields of an existing account.
// Balance and spend are left untouched.
const QUpdateAccountPlan = `--sql 64ead30c-88f8-4cda-8e4f-27ffbffd1d8c
update api_accounts
set plan       = $2::text,
    status     = $3::text,
    expires_at = $4::timestamptz,
    updated_at = now()
where user_id = $1::text
returning user_id, plan, status, balance, total_spent, expires_at, last_used_at, updated_at;
`

const QExpireLapsedAccounts = `--sql dddf3dd8-4bd5-4075-9b27-6f82accd2197
update api_accounts
set status     = 'expired',
    updated_at = now()
where status = 'active'
  and expires_at is not null
  and expires_at < $1::timestamptz;
`
