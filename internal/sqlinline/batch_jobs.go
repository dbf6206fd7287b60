package sqlinline

const QBatchSelectJob = `--sql 226a8702-a7b4-4a8e-8083-086087ce7c4d
select
    id::text,
    status,
    config,
    total_items,
    completed_items,
    successful_items,
    failed_items,
    started_at,
    completed_at,
    error_log,
    created_at,
    updated_at
from batch_jobs
where id = $1::uuid;
`

// QBatchInsertJob creates the job and all of its items in one statement.
// $5 is a jsonb array of {id, item_index, selectors}.
const QBatchInsertJob = `--sql 409a1e7f-d064-4050-bdd6-4aa54b0fe730
with job as (
    insert into batch_jobs (
        id, status, config, total_items,
        completed_items, successful_items, failed_items,
        error_log, created_at, updated_at
    )
    values ($1::uuid, $2::text, $3::jsonb, $4::int, 0, 0, 0, '[]'::jsonb, now(), now())
    returning id, created_at, updated_at
),
items as (
    insert into batch_job_items (id, job_id, item_index, status, selectors, created_at, updated_at)
    select
        (e->>'id')::uuid,
        (select id from job),
        (e->>'item_index')::int,
        'pending',
        coalesce(e->'selectors', '{}'::jsonb),
        now(),
        now()
    from jsonb_array_elements($5::jsonb) as e
    returning 1
)
select created_at, updated_at, (select count(*) from items)
from job;
`

// QBatchUpdateJob applies a JobPatch. Terminal statuses are never left and
// started_at/completed_at keep their first value.
const QBatchUpdateJob = `--sql 25640888-c8a4-4764-8eaf-e9027105b160
update batch_jobs
set status = case
        when status in ('completed', 'failed', 'cancelled') then status
        else coalesce($2::text, status)
    end,
    started_at = coalesce(started_at, $3::timestamptz),
    completed_at = coalesce(completed_at, $4::timestamptz),
    total_items = coalesce($5::int, total_items),
    completed_items = coalesce($6::int, completed_items),
    successful_items = coalesce($7::int, successful_items),
    failed_items = coalesce($8::int, failed_items),
    error_log = case
        when $9::text is null then error_log
        else error_log || jsonb_build_array($9::text)
    end,
    updated_at = now()
where id = $1::uuid;
`

const QBatchCancelJob = `--sql c1a2614a-087f-4302-9e77-9296d541f998
update batch_jobs
set status = 'cancelled',
    completed_at = coalesce(completed_at, now()),
    updated_at = now()
where id = $1::uuid
  and status in ('pending', 'running')
returning
    id::text,
    status,
    config,
    total_items,
    completed_items,
    successful_items,
    failed_items,
    started_at,
    completed_at,
    error_log,
    created_at,
    updated_at;
`

// QBatchClaimNextJob picks the oldest pending job, or a running job whose
// worker stopped touching it for longer than $1 seconds.
const QBatchClaimNextJob = `--sql e4f8b4d4-0dfd-4533-b761-7aecd2933dda
with next_job as (
    select id
    from batch_jobs
    where status = 'pending'
       or (status = 'running' and updated_at < now() - make_interval(secs => $1::double precision))
    order by created_at asc
    for update skip locked
    limit 1
),
updated as (
    update batch_jobs
    set status = 'running', updated_at = now()
    where id in (select id from next_job)
    returning
        id::text,
        status,
        config,
        total_items,
        completed_items,
        successful_items,
        failed_items,
        started_at,
        completed_at,
        error_log,
        created_at,
        updated_at
)
select * from updated;
`

const QBatchListPendingItems = `--sql df451da7-604f-4656-8467-86240a8d3beb
select
    id::text,
    job_id::text,
    item_index,
    status,
    selectors,
    generated_image_id::text,
    started_at,
    completed_at,
    gemini_duration_ms,
    total_duration_ms,
    error_message,
    created_at,
    updated_at
from batch_job_items
where job_id = $1::uuid
  and status = 'pending'
order by item_index asc;
`

const QBatchListItems = `--sql 9399ef89-4225-4b5d-b69a-32f414b211ad
select
    id::text,
    job_id::text,
    item_index,
    status,
    selectors,
    generated_image_id::text,
    started_at,
    completed_at,
    gemini_duration_ms,
    total_duration_ms,
    error_message,
    created_at,
    updated_at
from batch_job_items
where job_id = $1::uuid
order by item_index asc;
`

// QBatchUpdateItem applies an ItemPatch unless the item already finished.
const QBatchUpdateItem = `--sql 1371f906-7270-494c-b492-9c9436d3b442
update batch_job_items
set status = coalesce($2::text, status),
    started_at = coalesce($3::timestamptz, started_at),
    completed_at = coalesce($4::timestamptz, completed_at),
    generated_image_id = coalesce($5::uuid, generated_image_id),
    gemini_duration_ms = coalesce($6::bigint, gemini_duration_ms),
    total_duration_ms = coalesce($7::bigint, total_duration_ms),
    error_message = coalesce($8::text, error_message),
    updated_at = now()
where id = $1::uuid
  and status not in ('completed', 'failed');
`

const QBatchCountItemsByStatus = `--sql edf29298-bb26-4ab9-ba78-b208b106ec00
select status, count(*)
from batch_job_items
where job_id = $1::uuid
group by status;
`

const QBatchRequeueRunningItems = `--sql 8d6d8bc1-4060-4646-aa74-caf617e4f8b1
update batch_job_items
set status = 'pending',
    started_at = null,
    updated_at = now()
where job_id = $1::uuid
  and status = 'running';
`
