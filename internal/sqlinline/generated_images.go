package sqlinline

const QInsertGeneratedImage = `--sql 402d58b6-28be-40d9-bf97-43530e607906
insert into generated_images (
    id, job_id, item_id, storage_key, thumbnail_key, mime,
    width, height, bytes, description, metadata, created_at
)
values (
    $1::uuid, $2::uuid, $3::uuid, $4::text, nullif($5::text, ''), $6::text,
    $7::int, $8::int, $9::bigint, $10::text, coalesce($11::jsonb, '{}'::jsonb), now()
)
returning created_at;
`

const QSelectGeneratedImagesByJob = `--sql 99f6e2e9-18c5-4aa0-bf37-20d9e78ca1be
select
    gi.id::text,
    gi.job_id::text,
    gi.item_id::text,
    gi.storage_key,
    coalesce(gi.thumbnail_key, ''),
    gi.mime,
    gi.width,
    gi.height,
    gi.bytes,
    gi.description,
    gi.metadata,
    gi.created_at
from generated_images gi
join batch_job_items bi on bi.id = gi.item_id
where gi.job_id = $1::uuid
order by bi.item_index asc;
`
