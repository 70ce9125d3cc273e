package sqlinline

const QListUsage = `--sql 9fb08a6a-863e-42b0-b191-af97404ebcf8
select id::text, user_id, model, cost, created_at
from api_usage
where user_id = $1::text
order by created_at desc, id
limit $2::int;
`

const QCountUsage = `--sql 9a1d6366-bd42-4670-b625-cd0f648296f6
select count(*), coalesce(sum(cost), 0)
from api_usage
where user_id = $1::text;
`
